package main

import (
	"fmt"
	"strings"

	"github.com/iklavya/coach"
	"github.com/iklavya/coach/chat"
	"github.com/iklavya/coach/goldmark"
	coachjson "github.com/iklavya/coach/json"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
		width  int
	)

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session with its history and artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := chat.Open(cmd.Context(), a.client, args[0], a.chatOpts...)
			if err != nil {
				return fmt.Errorf("open session: %w", err)
			}
			s := o.Session()
			w := cmd.OutOrStdout()

			switch strings.ToLower(format) {
			case "json":
				if out == "-" {
					data, err := coachjson.MarshalSession(s)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(w, string(data))
					return err
				}
				path := out
				if path == "" {
					if path, err = coachjson.Path(a.cfg.TranscriptDir, s); err != nil {
						return fmt.Errorf("save transcript: %w", err)
					}
				}
				if err := coachjson.Save(path, s); err != nil {
					return fmt.Errorf("save transcript: %w", err)
				}
				fmt.Fprintf(w, "Saved %d messages to %s\n", len(s.Messages), path)
				return nil
			case "markdown":
				_, err := fmt.Fprint(w, transcriptMarkdown(s))
				return err
			case "text":
				theme := coach.DefaultTheme()
				text := goldmark.Render(transcriptMarkdown(withoutArtifact(s)), width, theme)
				if s.Artifact != nil {
					text += "\n\n" + goldmark.RenderArtifact(s.Artifact, width, theme)
				}
				_, err := fmt.Fprintln(w, text)
				return err
			default:
				return fmt.Errorf("unknown --format %q (want json, markdown or text)", format)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&format, "format", "json", "output format: json, markdown, or text")
	flags.StringVarP(&out, "out", "o", "", "json output path, '-' for stdout (default: transcript dir)")
	flags.IntVar(&width, "width", goldmark.DefaultWidth, "wrap width for text output")
	return cmd
}

// transcriptMarkdown renders a session as a markdown document.
func transcriptMarkdown(s coach.Session) string {
	var b strings.Builder
	title := s.Title
	if title == "" {
		title = "Session " + s.ID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if s.Summary != "" {
		fmt.Fprintf(&b, "> %s\n\n", collapse(s.Summary))
	}
	for _, m := range s.Messages {
		speaker := "Coach"
		if m.Role == coach.RoleUser {
			speaker = "You"
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", speaker, strings.TrimSpace(m.Content))
	}
	switch a := s.Artifact.(type) {
	case coach.Analysis:
		b.WriteString("---\n\n")
		b.WriteString(strings.TrimSpace(a.AnalysisMarkdown))
		b.WriteString("\n")
		if steps, err := a.Roadmap(); err == nil && len(steps) > 0 {
			b.WriteString("\n## Roadmap\n\n")
			for i, step := range steps {
				fmt.Fprintf(&b, "%d. **%s**", i+1, step.Title)
				if step.Timeline != "" {
					fmt.Fprintf(&b, " _(%s)_", step.Timeline)
				}
				if step.Description != "" {
					fmt.Fprintf(&b, ": %s", step.Description)
				}
				b.WriteString("\n")
			}
		}
	case coach.Resume:
		fmt.Fprintf(&b, "---\n\nResume `%s` generated", a.ResumeID)
		if a.Template != "" {
			fmt.Fprintf(&b, " with the %s template", a.Template)
		}
		b.WriteString(".\n")
	}
	return b.String()
}

func withoutArtifact(s coach.Session) coach.Session {
	s.Artifact = nil
	return s
}
