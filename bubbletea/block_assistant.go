package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iklavya/coach"
	"github.com/iklavya/coach/goldmark"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders a coach reply as markdown while it streams.
// Text up to the last paragraph break is stable: it is rendered once per
// width and cached, so each delta only re-renders the open paragraph.
type AssistantTextBlock struct {
	raw   strings.Builder
	theme coach.Theme

	stable        string
	stableByWidth map[int]string
}

// NewAssistantTextBlock creates an empty reply block.
func NewAssistantTextBlock(theme coach.Theme) *AssistantTextBlock {
	return &AssistantTextBlock{
		theme:         theme,
		stableByWidth: make(map[int]string),
	}
}

// Append adds a text delta.
func (b *AssistantTextBlock) Append(text string) {
	b.raw.WriteString(text)
	b.advanceStable()
}

// Sync brings the block up to date with the full reply content. Content
// that extends the current text is appended; anything else replaces it.
func (b *AssistantTextBlock) Sync(content string) {
	cur := b.raw.String()
	switch {
	case content == cur:
	case strings.HasPrefix(content, cur):
		b.Append(content[len(cur):])
	default:
		b.raw.Reset()
		b.stable = ""
		clear(b.stableByWidth)
		b.Append(content)
	}
}

// Len returns the length in bytes of the reply so far.
func (b *AssistantTextBlock) Len() int { return b.raw.Len() }

func (b *AssistantTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantTextBlock) View(width int) string {
	stable := b.renderStable(width)
	open := b.openRaw()
	if hasUnclosedFence(open) {
		// Closed for display only so a half-streamed code block renders.
		open += "\n```"
	}
	if strings.TrimSpace(open) == "" {
		return stable
	}
	rendered := goldmark.Render(open, width, b.theme)
	if strings.TrimSpace(rendered) == "" {
		return stable
	}
	if stable == "" {
		return rendered
	}
	// Independently rendered halves are joined with one paragraph break.
	return strings.TrimRight(stable, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
}

// advanceStable moves the stable prefix to the last paragraph break that
// is not inside an open code fence.
func (b *AssistantTextBlock) advanceStable() {
	raw := b.raw.String()
	end := len(raw)
	for {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		if prefix := raw[:idx]; !hasUnclosedFence(prefix) {
			if prefix != b.stable {
				b.stable = prefix
				clear(b.stableByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantTextBlock) renderStable(width int) string {
	if width <= 0 || b.stable == "" {
		return ""
	}
	if out, ok := b.stableByWidth[width]; ok {
		return out
	}
	out := goldmark.Render(b.stable, width, b.theme)
	b.stableByWidth[width] = out
	return out
}

func (b *AssistantTextBlock) openRaw() string {
	raw := b.raw.String()
	if b.stable == "" {
		return raw
	}
	return strings.TrimPrefix(raw, b.stable+"\n\n")
}

// hasUnclosedFence reports an odd number of ``` markers in s. Backticks
// inside inline code spans are counted too.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
