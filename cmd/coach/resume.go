package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iklavya/coach"
	"github.com/spf13/cobra"
)

func newATSCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ats <resume-id>",
		Short: "Score a generated resume against applicant tracking systems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := a.client.ScoreResume(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("score resume: %w", err)
			}
			return writeATS(cmd.OutOrStdout(), score)
		},
	}
}

func newResumePDFCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "resume-pdf <resume-id>",
		Short: "Download a generated resume as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			path := out
			if path == "" {
				path = "resume-" + args[0] + ".pdf"
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					_ = os.Remove(path)
				}
			}()

			n, err := a.client.DownloadResume(cmd.Context(), args[0], f)
			if err != nil {
				return fmt.Errorf("download resume: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: resume-<id>.pdf)")
	return cmd
}

func newTemplateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "template <resume-id> <template>",
		Short: "Switch the layout template of a generated resume",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.client.SetTemplate(cmd.Context(), args[0], args[1])
			if errors.Is(err, coach.ErrNotFound) {
				return fmt.Errorf("resume %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("set template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resume %s now uses the %s template\n", args[0], args[1])
			return nil
		},
	}
}

func writeATS(w io.Writer, s coach.ATSScore) error {
	var b strings.Builder
	fmt.Fprintf(&b, "ATS score: %d/%d (%d%%, %s)\n", s.TotalScore, s.MaxScore, s.Percent(), s.Label())
	if s.DeterministicTotal != 0 || s.SemanticTotal != 0 {
		fmt.Fprintf(&b, "  format & keywords: %d, content quality: %d\n", s.DeterministicTotal, s.SemanticTotal)
	}
	if len(s.Categories) > 0 {
		b.WriteString("\nCategories:\n")
		for _, c := range s.Categories {
			fmt.Fprintf(&b, "  %-24s %3d/%-3d", c.Label, c.Score, c.Max)
			if c.Grade != "" {
				fmt.Fprintf(&b, "  %s", c.Grade)
			}
			b.WriteString("\n")
			if c.Tip != "" {
				fmt.Fprintf(&b, "    %s\n", c.Tip)
			}
		}
	}
	writeList(&b, "Matched keywords", s.MatchedKeywords)
	writeList(&b, "Missing keywords", s.MissingKeywords)
	if len(s.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, sug := range s.Suggestions {
			fmt.Fprintf(&b, "  - %s\n", sug)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s: %s\n", label, strings.Join(items, ", "))
}
