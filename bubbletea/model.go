package bubbletea

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/iklavya/coach"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Layout rows outside the viewport.
const (
	headerHeight = 1
	inputHeight  = 1
	statusHeight = 1
	borderHeight = 2
)

// Model is the Bubble Tea model for a coaching session.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript. Exported for test access.
	Viewport viewport.Model

	send    SendFunc
	end     EndFunc
	session coach.Session
	theme   coach.Theme
	styles  Styles
	cache   *blockCache

	// before is the session as it was when the running turn was submitted.
	before coach.Session

	running bool
	ending  bool
	cancel  context.CancelFunc
	updates chan coach.Session
	done    chan TurnDoneMsg
	err     error
	ready   bool
	width   int
}

// blockCache keeps per-message blocks alive across renders so streaming
// replies only re-render their open paragraph.
type blockCache struct {
	replies  map[string]*AssistantTextBlock
	artifact *ArtifactBlock
}

// New creates a Model for session. end may be nil when the session kind
// cannot be ended explicitly.
func New(send SendFunc, end EndFunc, session coach.Session, theme coach.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "› "
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:   ti,
		send:    send,
		end:     end,
		session: session,
		theme:   theme,
		styles:  NewStyles(theme),
		cache:   &blockCache{replies: make(map[string]*AssistantTextBlock)},
	}
}

// Running reports whether a turn is streaming.
func (m Model) Running() bool { return m.running }

// Err returns the last turn or end-session error, if any.
func (m Model) Err() error { return m.err }

// Session returns the latest session snapshot.
func (m Model) Session() coach.Session { return m.session }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionMsg:
		m.session = msg.Session
		m = m.refresh()
		if m.updates != nil {
			return m, listenForUpdate(m.updates, m.done)
		}
		return m, nil

	case TurnDoneMsg:
		switch {
		case msg.Session != nil:
			m.session = *msg.Session
		case m.running:
			m.session = m.before
		}
		if m.cancel != nil {
			m.cancel()
		}
		m.running = false
		m.cancel = nil
		m.updates = nil
		m.done = nil
		m.err = visible(msg.Err)
		m = m.refresh()
		cmd := m.Input.Focus()
		return m, cmd

	case EndedMsg:
		m.ending = false
		m.session = msg.Session
		m.err = visible(msg.Err)
		m = m.refresh()
		cmd := m.Input.Focus()
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.busy() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) busy() bool { return m.running || m.ending }

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	vpHeight := max(msg.Height-headerHeight-inputHeight-statusHeight-borderHeight, 1)
	m.width = msg.Width
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	// The input pads to Width plus one cursor column after the prompt.
	m.Input.Width = max(msg.Width-runewidth.StringWidth(m.Input.Prompt)-1, 1)
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyCtrlE:
		if m.busy() || m.end == nil || m.session.Completed() {
			return m, nil
		}
		m.ending = true
		m.err = nil
		m.Input.Blur()
		return m, endSession(m.end)

	case tea.KeyEnter:
		if m.busy() {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		if m.session.Completed() {
			m.err = coach.ErrSessionCompleted
			return m, nil
		}
		return m.submit(text)
	}

	if m.busy() {
		return m, nil
	}
	// Character keys go to the input only; 'j' and 'k' also scroll the viewport.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil
	m.before = m.session

	// Shown until the first snapshot of the turn replaces it.
	m.session.Messages = append(slices.Clip(m.session.Messages), coach.Message{
		Role:      coach.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.updates = make(chan coach.Session, 256)
	m.done = make(chan TurnDoneMsg, 1)
	m.running = true
	m.Input.Blur()
	m = m.refresh()

	return m, tea.Batch(
		startTurn(ctx, m.send, text, m.updates, m.done),
		listenForUpdate(m.updates, m.done),
	)
}

// refresh re-renders the transcript and scrolls to the bottom.
func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) blocks() []MessageBlock {
	var out []MessageBlock
	for i, msg := range m.session.Messages {
		switch msg.Role {
		case coach.RoleUser:
			out = append(out, NewUserMessageBlock(msg.Content, m.styles))
		case coach.RoleAssistant:
			if msg.Content == "" {
				if m.running && i == len(m.session.Messages)-1 {
					out = append(out, NewNoticeBlock("…", m.styles.Muted))
				}
				continue
			}
			out = append(out, m.reply(msg))
		}
	}
	if a := m.session.Artifact; a != nil {
		if m.cache.artifact == nil || m.cache.artifact.Artifact() != a {
			m.cache.artifact = NewArtifactBlock(a, m.theme, m.styles)
		}
		out = append(out, m.cache.artifact)
	}
	if s := m.session.Summary; s != "" {
		out = append(out, NewNoticeBlock("Summary: "+s, m.styles.Success))
	}
	return out
}

func (m Model) reply(msg coach.Message) *AssistantTextBlock {
	b, ok := m.cache.replies[msg.ID]
	if !ok {
		b = NewAssistantTextBlock(m.theme)
		m.cache.replies[msg.ID] = b
	}
	b.Sync(msg.Content)
	return b
}

func (m Model) renderContent() string {
	blocks := m.blocks()
	views := make([]string, 0, len(blocks))
	for _, b := range blocks {
		views = append(views, b.View(m.Viewport.Width))
	}
	return strings.Join(views, "\n\n")
}

func (m Model) header() string {
	title := m.session.Title
	if title == "" {
		title = m.session.ID
	}
	label := "Career guidance"
	if m.session.Kind == coach.KindResume {
		label = "Resume builder"
	}
	line := label
	if title != "" {
		line += " · " + title
	}
	return m.styles.Accent.Render(runewidth.Truncate(line, max(m.width, 1), "…"))
}

func (m Model) statusLine() string {
	if notice := coach.Notice(m.err); notice != "" {
		return m.styles.Error.Render(runewidth.Truncate("Error: "+notice, max(m.width, 1), "…"))
	}
	var hint string
	switch {
	case m.running:
		hint = "Streaming... Ctrl+C to cancel"
	case m.ending:
		hint = "Ending session..."
	case m.session.Completed():
		hint = "Session completed. Ctrl+C to quit"
	case m.end != nil:
		hint = "Enter to send, Ctrl+E to end session, Ctrl+C to quit"
	default:
		hint = "Enter to send, Ctrl+C to quit"
	}
	return m.styles.Muted.Render(hint)
}

// visible drops errors the user should not see, such as cancellation.
func visible(err error) error {
	if coach.Notice(err) == "" {
		return nil
	}
	return err
}

// startTurn runs send in a goroutine-backed command and reports the final
// snapshot. Snapshots produced after cancellation are not delivered as
// SessionMsg but the last one is still carried by TurnDoneMsg.
func startTurn(ctx context.Context, send SendFunc, text string, updates chan<- coach.Session, done chan<- TurnDoneMsg) tea.Cmd {
	return func() tea.Msg {
		var last *coach.Session
		outcome, err := send(ctx, text, func(s coach.Session) {
			last = &s
			select {
			case updates <- s:
			case <-ctx.Done():
			}
		})
		close(updates)
		done <- TurnDoneMsg{Outcome: outcome, Err: err, Session: last}
		return nil
	}
}

// listenForUpdate waits for the next snapshot. When the channel closes it
// returns the turn's TurnDoneMsg.
func listenForUpdate(updates <-chan coach.Session, done <-chan TurnDoneMsg) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return <-done
		}
		return SessionMsg{Session: s}
	}
}

func endSession(end EndFunc) tea.Cmd {
	return func() tea.Msg {
		s, err := end(context.Background())
		return EndedMsg{Session: s, Err: err}
	}
}
