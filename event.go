package coach

// Event is a sealed interface representing one interpreted stream frame.
// Events are purely semantic. Transport failures come from Next()'s error
// return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta carries a fragment of the assistant reply.
type EventTextDelta struct {
	Text string
}

func (EventTextDelta) event() {}

// EventArtifact carries the terminal artifact that completes the session.
type EventArtifact struct {
	Artifact Artifact
}

func (EventArtifact) event() {}

// EventError is a failure reported by the backend inside the stream.
type EventError struct {
	Message string
}

func (EventError) event() {}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventArtifact{}
	_ Event = EventError{}
)
