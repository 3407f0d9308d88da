package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/iklavya/coach"
	"github.com/iklavya/coach/sse"
)

// Wire event names shared by every session kind.
const (
	eventMessage = sse.DefaultEvent
	eventError   = "error"
)

// artifactDecoders maps each kind to the decoder for its terminal payload.
var artifactDecoders = map[coach.Kind]func([]byte) (coach.Artifact, error){
	coach.KindGuidance: decodeAnalysis,
	coach.KindResume:   decodeResume,
}

func decodeArtifact(kind coach.Kind, data []byte) (coach.Artifact, error) {
	decode, ok := artifactDecoders[kind]
	if !ok {
		return nil, fmt.Errorf("session kind %q: %w", kind, coach.ErrNotSupported)
	}
	return decode(data)
}

func decodeAnalysis(data []byte) (coach.Artifact, error) {
	var p analysisPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return coach.Analysis{
		AnalysisJSON:     string(p.AnalysisJSON),
		AnalysisMarkdown: string(p.AnalysisMarkdown),
		RoadmapJSON:      string(p.RoadmapJSON),
	}, nil
}

func decodeResume(data []byte) (coach.Artifact, error) {
	var p resumePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	id := p.ResumeID
	if id == "" {
		id = p.ID
	}
	return coach.Resume{
		ResumeID:   string(id),
		ResumeJSON: string(p.ResumeJSON),
		Template:   p.Template,
	}, nil
}

// stream implements [coach.Stream] by interpreting SSE frames from an HTTP
// response body.
type stream struct {
	ctx    context.Context
	body   io.ReadCloser
	frames *sse.Reader
	kind   coach.Kind
	logger *slog.Logger
	state  coach.StreamState
	err    error // terminal error, if any
}

// Interface compliance check.
var _ coach.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, kind coach.Kind, maxFrame int, logger *slog.Logger) *stream {
	return &stream{
		ctx:    ctx,
		body:   body,
		frames: sse.NewReader(body, sse.WithMaxFrame(maxFrame)),
		kind:   kind,
		logger: logger,
		state:  coach.StreamStateNew,
	}
}

// Next reads frames until one interprets to an event. It returns io.EOF
// when the backend closes the stream.
func (s *stream) Next() (coach.Event, error) {
	switch s.state {
	case coach.StreamStateComplete:
		return nil, io.EOF
	case coach.StreamStateError:
		return nil, s.err
	case coach.StreamStateClosed:
		return nil, coach.ErrStreamClosed
	}

	for {
		f, err := s.frames.Next()
		if err != nil {
			s.terminate(err)
			if s.state == coach.StreamStateComplete {
				return nil, io.EOF
			}
			return nil, s.err
		}
		s.state = coach.StreamStateStreaming

		if evt := s.interpret(f); evt != nil {
			return evt, nil
		}
		// Ignored or malformed frame - keep reading.
	}
}

// State returns the current stream state.
func (s *stream) State() coach.StreamState {
	return s.state
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != coach.StreamStateComplete && s.state != coach.StreamStateError {
		s.state = coach.StreamStateClosed
	}
	return s.body.Close()
}

// terminate records how the stream ended. A read error after the context
// was cancelled is a cancellation, an oversized frame hits the content
// limit, any other error is a lost connection.
func (s *stream) terminate(err error) {
	if errors.Is(err, io.EOF) {
		s.state = coach.StreamStateComplete
		return
	}
	s.state = coach.StreamStateError
	if errors.Is(err, sse.ErrFrameTooLarge) {
		s.logger.Warn("stream frame over limit", "error", err)
		s.err = fmt.Errorf("api: %w: %w", coach.ErrContentLimit, err)
		return
	}
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		s.err = fmt.Errorf("api: %w", ctxErr)
		return
	}
	s.err = fmt.Errorf("api: %w: %w", coach.ErrConnectionLost, err)
}

// interpret maps a frame to an event. It returns nil for frames that carry
// nothing for the conversation: unknown event types, empty deltas and
// payloads that are not valid JSON.
func (s *stream) interpret(f sse.Frame) coach.Event {
	data := []byte(f.Data)
	switch f.Event {
	case eventMessage:
		var p textPayload
		if err := json.Unmarshal(data, &p); err != nil {
			s.skip(f, err)
			return nil
		}
		if p.Text == "" {
			return nil
		}
		return coach.EventTextDelta{Text: p.Text}
	case eventError:
		var p errorPayload
		if err := json.Unmarshal(data, &p); err != nil {
			s.skip(f, err)
			return nil
		}
		return coach.EventError{Message: p.Error}
	case s.kind.TerminalEvent():
		a, err := decodeArtifact(s.kind, data)
		if err != nil {
			s.skip(f, err)
			return nil
		}
		return coach.EventArtifact{Artifact: a}
	default:
		s.logger.Debug("ignoring stream event", "event", f.Event)
		return nil
	}
}

func (s *stream) skip(f sse.Frame, err error) {
	s.logger.Debug("skipping malformed frame", "event", f.Event, "error", err)
}
