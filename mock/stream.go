package mock

import "github.com/iklavya/coach"

// Interface compliance check.
var _ coach.Stream = (*Stream)(nil)

// Stream is a test double for coach.Stream.
// NextFn panics when nil to catch missing setup. CloseFn and StateFn are
// nil-safe (no-op and zero value) because test code commonly calls
// defer stream.Close() and these methods rarely need custom behavior.
type Stream struct {
	NextFn  func() (coach.Event, error)
	StateFn func() coach.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (coach.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() coach.StreamState {
	if s.StateFn == nil {
		return coach.StreamStateNew
	}
	return s.StateFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
