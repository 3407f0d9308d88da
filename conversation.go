package coach

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// DefaultMaxContent caps the size in bytes of a single assistant reply.
const DefaultMaxContent = 1 << 20

// Turn identifies the messages created for one user submission.
type Turn struct {
	UserID      string
	AssistantID string
	Content     string // trimmed user text sent to the backend
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithMaxContent sets the assistant reply size cap in bytes. Values <= 0
// restore DefaultMaxContent.
func WithMaxContent(n int) ConversationOption {
	return func(c *Conversation) {
		if n <= 0 {
			n = DefaultMaxContent
		}
		c.maxContent = n
	}
}

// WithIDGenerator replaces the uuid-based message id generator.
func WithIDGenerator(fn func() string) ConversationOption {
	return func(c *Conversation) { c.newID = fn }
}

// WithClock replaces time.Now for message timestamps.
func WithClock(fn func() time.Time) ConversationOption {
	return func(c *Conversation) { c.now = fn }
}

// Conversation is the session state machine. It is the only place where a
// session's messages, phase and artifact change. Phase moves from active to
// completed exactly once and never back.
//
// Methods are safe for concurrent use so a UI goroutine can take snapshots
// while a turn streams, but turns themselves are applied sequentially by a
// single orchestrator.
type Conversation struct {
	mu      sync.Mutex
	session Session

	// In-flight turn. inflight is nil when no reply is streaming.
	inflight *Turn
	reply    strings.Builder
	capped   bool

	maxContent int
	newID      func() string
	now        func() time.Time
}

// NewConversation wraps a hydrated session. A zero Phase is treated as
// active.
func NewConversation(s Session, opts ...ConversationOption) *Conversation {
	if s.Phase == "" {
		s.Phase = PhaseActive
	}
	s.Messages = slices.Clone(s.Messages)
	c := &Conversation{
		session:    s,
		maxContent: DefaultMaxContent,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns a snapshot of the session. The returned value shares no
// mutable state with the Conversation.
func (c *Conversation) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	s.Messages = slices.Clone(c.session.Messages)
	return s
}

// Phase returns the current session phase.
func (c *Conversation) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Phase
}

// Streaming reports whether a turn is in flight.
func (c *Conversation) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != nil
}

// Begin validates a user submission and, when accepted, appends the user
// message and an empty assistant placeholder. Rejections leave the session
// untouched.
func (c *Conversation) Begin(text string) (Turn, error) {
	content, err := ValidateContent(text)
	if err != nil {
		return Turn{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Phase != PhaseActive {
		return Turn{}, ErrSessionCompleted
	}
	if c.inflight != nil {
		return Turn{}, ErrTurnInFlight
	}

	now := c.now()
	t := Turn{UserID: c.newID(), AssistantID: c.newID(), Content: content}
	c.session.Messages = append(c.session.Messages,
		Message{ID: t.UserID, Role: RoleUser, Content: content, Timestamp: now},
		Message{ID: t.AssistantID, Role: RoleAssistant, Timestamp: now},
	)
	c.session.UpdatedAt = now
	c.inflight = &t
	c.reply.Reset()
	c.capped = false
	return t, nil
}

// Apply applies one stream event to the turn. Events for a turn that is no
// longer in flight are ignored.
//
// An EventError removes the turn's assistant message and is returned as a
// *ServerError. A text delta that would exceed the content cap is cut at a
// grapheme boundary and ErrContentLimit is returned.
func (c *Conversation) Apply(t Turn, evt Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight == nil || c.inflight.AssistantID != t.AssistantID {
		return nil
	}

	switch e := evt.(type) {
	case EventTextDelta:
		return c.appendDelta(t.AssistantID, e.Text)
	case EventArtifact:
		c.complete(e.Artifact)
	case EventError:
		c.remove(t.AssistantID)
		return &ServerError{Message: e.Message}
	default:
		return fmt.Errorf("unknown event type %T: %w", evt, ErrValidation)
	}
	return nil
}

func (c *Conversation) appendDelta(id, text string) error {
	i := c.index(id)
	if i < 0 {
		// Placeholder already discarded by an error event.
		return nil
	}
	if c.capped {
		return ErrContentLimit
	}
	room := c.maxContent - c.reply.Len()
	limited := len(text) > room
	if limited {
		text = truncateGraphemes(text, room)
		c.capped = true
	}
	c.reply.WriteString(text)
	c.session.Messages[i].Content = c.reply.String()
	c.session.UpdatedAt = c.now()
	if limited {
		return ErrContentLimit
	}
	return nil
}

// Finish closes the turn. The assistant message is dropped on
// OutcomeError, and also whenever it is still empty; otherwise it keeps the
// content streamed so far.
func (c *Conversation) Finish(t Turn, outcome TurnOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight == nil || c.inflight.AssistantID != t.AssistantID {
		return
	}
	if i := c.index(t.AssistantID); i >= 0 {
		if outcome == OutcomeError || c.session.Messages[i].Content == "" {
			c.remove(t.AssistantID)
		}
	}
	c.inflight = nil
	c.reply.Reset()
	c.capped = false
	c.session.UpdatedAt = c.now()
}

// End forces the session into the completed phase without an artifact.
// It is rejected while a turn is in flight. Ending a completed session is
// a no-op.
func (c *Conversation) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		return ErrTurnInFlight
	}
	c.session.Phase = PhaseCompleted
	c.session.UpdatedAt = c.now()
	return nil
}

// Attach records an artifact fetched outside of a stream and completes the
// session.
func (c *Conversation) Attach(a Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.complete(a)
}

// SetSummary records the backend's closing summary.
func (c *Conversation) SetSummary(summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Summary = summary
}

func (c *Conversation) complete(a Artifact) {
	// resume_ready payloads carry no template; it belongs to the session.
	if r, ok := a.(Resume); ok && r.Template == "" {
		r.Template = c.session.Template
		a = r
	}
	c.session.Artifact = a
	c.session.ArtifactReady = false
	c.session.Phase = PhaseCompleted
	c.session.UpdatedAt = c.now()
}

func (c *Conversation) index(id string) int {
	return slices.IndexFunc(c.session.Messages, func(m Message) bool { return m.ID == id })
}

func (c *Conversation) remove(id string) {
	c.session.Messages = slices.DeleteFunc(c.session.Messages, func(m Message) bool { return m.ID == id })
}

// truncateGraphemes returns the longest prefix of s that fits in max bytes
// without splitting a grapheme cluster.
func truncateGraphemes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	cut := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		_, to := g.Positions()
		if to > max {
			break
		}
		cut = to
	}
	return s[:cut]
}
