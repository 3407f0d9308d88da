// Package mock provides test doubles for coach interfaces using function fields.
package mock

import (
	"context"

	"github.com/iklavya/coach"
)

// Interface compliance check.
var _ coach.Backend = (*Backend)(nil)

// Backend is a test double for coach.Backend.
// Set the function fields for the methods you need. Calling a method whose
// field is nil panics to catch missing setup.
type Backend struct {
	LoadSessionFn   func(ctx context.Context, id string) (coach.Session, error)
	FetchArtifactFn func(ctx context.Context, id string) (coach.Artifact, error)
	SendMessageFn   func(ctx context.Context, id, content string) (coach.Stream, error)
	EndSessionFn    func(ctx context.Context, id string) (string, error)
}

// LoadSession delegates to LoadSessionFn.
func (b *Backend) LoadSession(ctx context.Context, id string) (coach.Session, error) {
	return b.LoadSessionFn(ctx, id)
}

// FetchArtifact delegates to FetchArtifactFn.
func (b *Backend) FetchArtifact(ctx context.Context, id string) (coach.Artifact, error) {
	return b.FetchArtifactFn(ctx, id)
}

// SendMessage delegates to SendMessageFn.
func (b *Backend) SendMessage(ctx context.Context, id, content string) (coach.Stream, error) {
	return b.SendMessageFn(ctx, id, content)
}

// EndSession delegates to EndSessionFn.
func (b *Backend) EndSession(ctx context.Context, id string) (string, error) {
	return b.EndSessionFn(ctx, id)
}
