package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/iklavya/coach"
	bt "github.com/iklavya/coach/bubbletea"
	"github.com/iklavya/coach/chat"
	coachjson "github.com/iklavya/coach/json"
	"github.com/spf13/cobra"
)

func newNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new [title]",
		Short: "Start a new session and chat in it",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.CreateSession(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			a.logger.Info("session created", "session", s.ID)
			return a.chat(cmd, chat.New(a.client, s, a.chatOpts...))
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <session-id>",
		Short: "Resume an existing session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := chat.Open(cmd.Context(), a.client, args[0], a.chatOpts...)
			if err != nil {
				return fmt.Errorf("open session: %w", err)
			}
			return a.chat(cmd, o)
		},
	}
}

// chat runs the TUI over o and saves the transcript after every turn and
// on exit.
func (a *app) chat(cmd *cobra.Command, o *chat.Orchestrator) error {
	send := func(ctx context.Context, text string, onUpdate func(coach.Session)) (coach.TurnOutcome, error) {
		outcome, err := o.Send(ctx, text, chat.WithUpdateHandler(onUpdate))
		if outcome != coach.OutcomeRejected {
			a.saveTranscript(o.Session())
		}
		return outcome, err
	}
	var end bt.EndFunc
	if a.client.Kind() == coach.KindGuidance {
		end = func(ctx context.Context) (coach.Session, error) {
			_, err := o.End(ctx)
			s := o.Session()
			if err == nil {
				a.saveTranscript(s)
			}
			return s, err
		}
	}

	model := bt.New(send, end, o.Session(), coach.DefaultTheme())
	if _, err := bt.Run(cmd.Context(), model); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	// A turn may still be unwinding if the program was interrupted.
	o.Cancel()

	s := o.Session()
	if path := a.saveTranscript(s); path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Transcript saved to %s\n", path)
	}
	return nil
}

// saveTranscript writes s under the transcript directory and returns the
// path, or "" when there is nothing to save or saving failed.
func (a *app) saveTranscript(s coach.Session) string {
	if len(s.Messages) == 0 {
		return ""
	}
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	path, err := coachjson.Path(a.cfg.TranscriptDir, s)
	if err != nil {
		a.logger.Warn("failed to save transcript", "session", s.ID, "error", err)
		return ""
	}
	if err := coachjson.Save(path, s); err != nil {
		a.logger.Warn("failed to save transcript", "path", path, "error", err)
		return ""
	}
	return path
}
