package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/iklavya/coach"
	coachjson "github.com/iklavya/coach/json"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

const (
	idWidth     = 12
	statusWidth = 9
	dateWidth   = 16
	dateLayout  = "2006-01-02 15:04"
)

func newListCmd(a *app) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions of the selected kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := a.client.ListSessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			if len(sessions) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s sessions yet.\n", a.client.Kind())
				return nil
			}
			return writeSessionTable(cmd.OutOrStdout(), sessions, width)
		},
	}
	cmd.Flags().IntVar(&width, "width", 100, "maximum line width")
	return cmd
}

func newTranscriptsCmd(a *app) *cobra.Command {
	var (
		match string
		width int
	)

	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "List saved transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := coachjson.List(a.cfg.TranscriptDir, match)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(paths) == 0 {
				fmt.Fprintf(out, "No transcripts in %s\n", a.cfg.TranscriptDir)
				return nil
			}
			var sessions []coach.Session
			for _, p := range paths {
				s, err := coachjson.Load(p)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", filepath.Base(p), err)
					continue
				}
				sessions = append(sessions, s)
			}
			return writeSessionTable(out, sessions, width)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&match, "match", "", "glob relative to the transcript dir, e.g. 'resume/*' or '**/abc*.json'")
	flags.IntVar(&width, "width", 100, "maximum line width")
	return cmd
}

// writeSessionTable prints one row per session with the title clipped so
// each line fits width display columns.
func writeSessionTable(w io.Writer, sessions []coach.Session, width int) error {
	fixed := idWidth + statusWidth + dateWidth + 3*2
	titleWidth := max(width-fixed, 10)

	header := cell("ID", idWidth) + "  " + cell("STATUS", statusWidth) + "  " + cell("UPDATED", dateWidth) + "  TITLE"
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		row := cell(s.ID, idWidth) + "  " +
			cell(string(s.Phase), statusWidth) + "  " +
			cell(formatDate(s.UpdatedAt, s.CreatedAt), dateWidth) + "  " +
			runewidth.Truncate(collapse(title), titleWidth, "…")
		if _, err := fmt.Fprintln(w, strings.TrimRight(row, " ")); err != nil {
			return err
		}
	}
	return nil
}

// cell clips s to n columns and pads it on the right.
func cell(s string, n int) string {
	return runewidth.FillRight(runewidth.Truncate(s, n, "…"), n)
}

func formatDate(times ...time.Time) string {
	for _, t := range times {
		if !t.IsZero() {
			return t.Local().Format(dateLayout)
		}
	}
	return "-"
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
