package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iklavya/coach"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var mdParser = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
).Parser()

type ansiRenderer struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	code      lipgloss.Style
	underline lipgloss.Style
}

func newRenderer(theme coach.Theme) *ansiRenderer {
	return &ansiRenderer{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		code:      lipgloss.NewStyle().Background(ansiColor(theme.CodeBg)).Bold(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// blockWriter accumulates rendered blocks and separates siblings with one
// blank line.
type blockWriter struct {
	buf    bytes.Buffer
	source []byte
	width  int
}

func (w *blockWriter) line(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func (w *blockWriter) gap(n ast.Node) {
	if n.NextSibling() != nil {
		w.buf.WriteByte('\n')
	}
}

func (r *ansiRenderer) render(source []byte, width int) string {
	doc := mdParser.Parse(text.NewReader(source))
	w := &blockWriter{source: source, width: width}
	r.walkBlocks(doc, w)
	return strings.TrimRight(w.buf.String(), "\n")
}

func (r *ansiRenderer) walkBlocks(node ast.Node, w *blockWriter) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderBlock(c, w)
	}
}

func (r *ansiRenderer) renderBlock(node ast.Node, w *blockWriter) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.line(wrap(r.inline(n, w.source), w.width))
		w.gap(n)

	case *ast.Heading:
		title := r.inline(n, w.source)
		w.line(wrap(r.heading.Render(title), w.width))
		if n.Level == 1 {
			w.line(r.muted.Render(strings.Repeat("─", min(lipgloss.Width(title), w.width))))
		}
		w.gap(n)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.source)); lang != "" {
			w.line(r.muted.Render(lang))
		}
		r.codeLines(n, w)
		w.gap(n)

	case *ast.CodeBlock:
		r.codeLines(n, w)
		w.gap(n)

	case *ast.Blockquote:
		inner := &blockWriter{source: w.source, width: max(w.width-2, 10)}
		r.walkBlocks(n, inner)
		bar := r.muted.Render("▎") + " "
		for _, l := range strings.Split(strings.TrimRight(inner.buf.String(), "\n"), "\n") {
			w.line(bar + l)
		}
		w.gap(n)

	case *ast.List:
		r.renderList(n, w, 0)
		w.gap(n)

	case *ast.ThematicBreak:
		w.line(r.muted.Render(strings.Repeat("─", min(w.width, 40))))
		w.gap(n)

	case *east.Table:
		r.renderTable(n, w)
		w.gap(n)

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			w.buf.Write(seg.Value(w.source))
		}

	default:
		r.walkBlocks(node, w)
	}
}

func (r *ansiRenderer) codeLines(n ast.Node, w *blockWriter) {
	gutter := r.muted.Render("│") + " "
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		w.line(gutter + strings.TrimRight(string(seg.Value(w.source)), "\n"))
	}
}

func (r *ansiRenderer) renderList(list *ast.List, w *blockWriter, depth int) {
	n := list.Start
	for c := list.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if list.IsOrdered() {
			marker = fmt.Sprintf("%d. ", n)
			n++
		}
		prefix := strings.Repeat("  ", depth) + marker

		var content strings.Builder
		flush := func() {
			if content.Len() > 0 {
				writeHanging(w, prefix, content.String())
				content.Reset()
				prefix = strings.Repeat(" ", len(prefix))
			}
		}
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				content.WriteString(r.inline(in, w.source))
			case *ast.List:
				flush()
				r.renderList(in, w, depth+1)
			default:
				flush()
				nested := &blockWriter{source: w.source, width: w.width}
				r.renderBlock(ic, nested)
				content.WriteString(strings.TrimRight(nested.buf.String(), "\n"))
			}
		}
		flush()
	}
}

// writeHanging writes content wrapped after prefix, indenting continuation
// lines to the prefix width.
func writeHanging(w *blockWriter, prefix, content string) {
	body := wrap(content, max(w.width-len(prefix), 10))
	pad := strings.Repeat(" ", len(prefix))
	for i, l := range strings.Split(body, "\n") {
		if i == 0 {
			w.line(prefix + l)
		} else {
			w.line(pad + l)
		}
	}
}

func (r *ansiRenderer) renderTable(table *east.Table, w *blockWriter) {
	var rows [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, r.inline(cell, w.source))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	widths := make([]int, cols)
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	sep := r.muted.Render(" │ ")
	for i, row := range rows {
		parts := make([]string, cols)
		for c := range cols {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			align := east.AlignNone
			if c < len(table.Alignments) {
				align = table.Alignments[c]
			}
			parts[c] = pad(cell, widths[c], align)
		}
		line := strings.Join(parts, sep)
		if i == 0 {
			w.line(r.bold.Render(line))
			rules := make([]string, cols)
			for c, n := range widths {
				rules[c] = strings.Repeat("─", n)
			}
			w.line(r.muted.Render(strings.Join(rules, "─┼─")))
			continue
		}
		w.line(line)
	}
}

// pad fills cell to n display columns. Styled cells are measured without
// their escape sequences.
func pad(cell string, n int, align east.Alignment) string {
	gap := n - lipgloss.Width(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case east.AlignRight:
		return strings.Repeat(" ", gap) + cell
	case east.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// inline collects styled inline text from a node's children.
func (r *ansiRenderer) inline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderInline(c, source, &buf)
	}
	return buf.String()
}

func (r *ansiRenderer) renderInline(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			buf.WriteByte('\n')
		case n.SoftLineBreak():
			buf.WriteByte(' ')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inline(n, source)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}

	case *east.Strikethrough:
		buf.WriteString(r.strike.Render(r.inline(n, source)))

	case *ast.CodeSpan:
		buf.WriteString(r.code.Render(r.inline(n, source)))

	case *ast.Link:
		buf.WriteString(r.underline.Render(r.inline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(r.underline.Render(r.inline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.renderInline(c, source, buf)
		}
	}
}
