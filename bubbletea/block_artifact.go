package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/iklavya/coach"
	"github.com/iklavya/coach/goldmark"
)

var _ MessageBlock = (*ArtifactBlock)(nil)

// ArtifactBlock renders the analysis or resume that completed the session
// inside a bordered panel. Rendered output is cached per width.
type ArtifactBlock struct {
	artifact coach.Artifact
	theme    coach.Theme
	styles   Styles
	byWidth  map[int]string
}

// NewArtifactBlock creates an ArtifactBlock.
func NewArtifactBlock(a coach.Artifact, theme coach.Theme, styles Styles) *ArtifactBlock {
	return &ArtifactBlock{artifact: a, theme: theme, styles: styles, byWidth: make(map[int]string)}
}

// Artifact returns the artifact shown by the block.
func (b *ArtifactBlock) Artifact() coach.Artifact { return b.artifact }

func (b *ArtifactBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ArtifactBlock) View(width int) string {
	if cached, ok := b.byWidth[width]; ok {
		return cached
	}
	// Border takes two columns and padding another two.
	inner := max(width-4, 10)
	body := goldmark.RenderArtifact(b.artifact, inner, b.theme)
	out := b.styles.ArtifactPanel.Width(max(width-2, 12)).Render(body)
	b.byWidth[width] = out
	return out
}
