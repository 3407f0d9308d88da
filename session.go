package coach

import "time"

// Kind identifies which conversational workflow a session belongs to.
type Kind string

const (
	KindGuidance Kind = "guidance" // career guidance chat
	KindResume   Kind = "resume"   // resume builder chat
)

// TerminalEvent returns the wire event name that completes a session of
// this kind, or "" for an unknown kind.
func (k Kind) TerminalEvent() string {
	switch k {
	case KindGuidance:
		return "analysis"
	case KindResume:
		return "resume_ready"
	default:
		return ""
	}
}

// Phase is the lifecycle phase of a session.
type Phase string

const (
	PhaseActive    Phase = "active"
	PhaseCompleted Phase = "completed"
)

// Session represents a conversation session with the career backend.
type Session struct {
	ID       string
	Kind     Kind
	Title    string
	Phase    Phase
	Template string // resume template, empty for guidance sessions
	Messages []Message

	// Artifact is the terminal output of a completed session, if known.
	Artifact Artifact
	// ArtifactReady reports that the backend holds an artifact for this
	// session which has not been fetched yet.
	ArtifactReady bool
	// Summary is the backend's closing summary after an explicit end.
	Summary string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Completed reports whether the session reached its terminal phase.
func (s Session) Completed() bool {
	return s.Phase == PhaseCompleted
}
