package goldmark

import (
	"fmt"
	"strings"

	"github.com/iklavya/coach"
)

// RenderArtifact renders the terminal artifact of a session: the analysis
// report followed by its roadmap, or a short notice for a generated resume.
// A roadmap that fails to decode is left out.
func RenderArtifact(a coach.Artifact, width int, theme coach.Theme) string {
	switch v := a.(type) {
	case coach.Analysis:
		return Render(analysisMarkdown(v), width, theme)
	case coach.Resume:
		return Render(resumeMarkdown(v), width, theme)
	default:
		return ""
	}
}

func analysisMarkdown(a coach.Analysis) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.AnalysisMarkdown))
	steps, err := a.Roadmap()
	if err != nil || len(steps) == 0 {
		return b.String()
	}
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString("## Roadmap\n\n")
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. **%s**", i+1, s.Title)
		if s.Timeline != "" {
			fmt.Fprintf(&b, " _(%s)_", s.Timeline)
		}
		if s.Description != "" {
			b.WriteString(": " + s.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func resumeMarkdown(r coach.Resume) string {
	var b strings.Builder
	b.WriteString("## Resume ready\n\n")
	if r.ResumeID != "" {
		fmt.Fprintf(&b, "- Resume: `%s`\n", r.ResumeID)
	}
	if r.Template != "" {
		fmt.Fprintf(&b, "- Template: %s\n", r.Template)
	}
	return b.String()
}
