package coach

import "context"

// Backend is the conversational service a session talks to. One Backend
// value serves a single session Kind.
type Backend interface {
	// LoadSession returns the session phase and its full message history.
	LoadSession(ctx context.Context, id string) (Session, error)
	// FetchArtifact returns the stored terminal artifact of a session.
	// It returns an error wrapping ErrNotFound when none exists.
	FetchArtifact(ctx context.Context, id string) (Artifact, error)
	// SendMessage posts a user turn and returns the reply stream.
	SendMessage(ctx context.Context, id, content string) (Stream, error)
	// EndSession closes the session on the backend and returns its summary.
	EndSession(ctx context.Context, id string) (string, error)
}
