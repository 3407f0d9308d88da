// Package chat drives one session's turns: it sends user messages to a
// [coach.Backend], pumps the reply stream into a [coach.Conversation], and
// owns cancellation of the in-flight request.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/iklavya/coach"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/iklavya/coach/chat"

// Orchestrator runs turns for a single session. At most one turn is in
// flight at a time; Send is called from one goroutine while Cancel and
// Session may be called from any.
type Orchestrator struct {
	backend coach.Backend
	conv    *coach.Conversation
	logger  *slog.Logger
	tracer  trace.Tracer

	turns    metric.Int64Counter
	frames   metric.Int64Counter
	duration metric.Float64Histogram

	mu     sync.Mutex
	cancel context.CancelFunc // nil when no turn is in flight
	ending bool               // End is talking to the backend
}

// Option configures an [Orchestrator].
type Option func(*options)

type options struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	convOpts []coach.ConversationOption
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracer sets the tracer for turn spans. Defaults to the global
// provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMeter sets the meter for turn and frame counters. Defaults to the
// global provider's meter.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithConversationOptions passes options to the underlying Conversation.
func WithConversationOptions(opts ...coach.ConversationOption) Option {
	return func(o *options) { o.convOpts = append(o.convOpts, opts...) }
}

// New creates an Orchestrator for an already hydrated session.
func New(backend coach.Backend, session coach.Session, opts ...Option) *Orchestrator {
	cfg := options{
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &Orchestrator{
		backend: backend,
		conv:    coach.NewConversation(session, cfg.convOpts...),
		logger:  cfg.logger.With("session", session.ID, "kind", string(session.Kind)),
		tracer:  cfg.tracer,
	}
	o.initInstruments(cfg.meter)
	return o
}

func (o *Orchestrator) initInstruments(m metric.Meter) {
	var err error
	if o.turns, err = m.Int64Counter("coach.turns",
		metric.WithDescription("Completed chat turns by outcome"),
	); err != nil {
		o.logger.Warn("failed to create counter", "name", "coach.turns", "error", err)
	}
	if o.frames, err = m.Int64Counter("coach.frames.applied",
		metric.WithDescription("Stream events applied to the conversation"),
	); err != nil {
		o.logger.Warn("failed to create counter", "name", "coach.frames.applied", "error", err)
	}
	if o.duration, err = m.Float64Histogram("coach.turn.duration",
		metric.WithDescription("Turn duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		o.logger.Warn("failed to create histogram", "name", "coach.turn.duration", "error", err)
	}
}

// Open loads a session with its history and returns an Orchestrator for
// it. When the backend reports a stored artifact it is fetched too; that
// second request may fail without failing Open.
func Open(ctx context.Context, backend coach.Backend, id string, opts ...Option) (*Orchestrator, error) {
	s, err := backend.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	o := New(backend, s, opts...)
	if s.ArtifactReady && s.Artifact == nil {
		o.fetchArtifact(ctx)
	}
	return o, nil
}

// Session returns a snapshot of the session.
func (o *Orchestrator) Session() coach.Session {
	return o.conv.Session()
}

// Streaming reports whether a turn is in flight.
func (o *Orchestrator) Streaming() bool {
	return o.conv.Streaming()
}

// SendOption configures a single Send invocation.
type SendOption func(*sendConfig)

type sendConfig struct {
	onUpdate func(coach.Session)
}

// WithUpdateHandler sets a callback that receives a session snapshot after
// the optimistic append, after every applied event and when the turn ends.
// It runs on the goroutine calling Send.
func WithUpdateHandler(h func(coach.Session)) SendOption {
	return func(c *sendConfig) { c.onUpdate = h }
}

func (c *sendConfig) notify(s coach.Session) {
	if c.onUpdate != nil {
		c.onUpdate(s)
	}
}

// Send submits one user turn and streams the reply into the session.
//
// Rejected submissions return OutcomeRejected and leave the session and
// backend untouched. A cancelled turn returns OutcomeAborted and a nil
// error, keeping whatever content arrived. Server failures are returned
// as *coach.ServerError and transport failures wrap
// coach.ErrConnectionLost; in both cases the partial reply is discarded
// and the user message stays.
func (o *Orchestrator) Send(ctx context.Context, text string, opts ...SendOption) (coach.TurnOutcome, error) {
	var cfg sendConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	turn, err := o.begin(text)
	if err != nil {
		return coach.OutcomeRejected, err
	}

	ctx, cancel := context.WithCancel(ctx)
	o.setCancel(cancel)
	defer o.clearCancel()

	ctx, span := o.tracer.Start(ctx, "chat.send")
	defer span.End()
	start := time.Now()

	cfg.notify(o.conv.Session())

	outcome, frames, err := o.pump(ctx, turn, &cfg)
	o.conv.Finish(turn, outcome)
	cfg.notify(o.conv.Session())

	session := o.conv.Session()
	attrs := []attribute.KeyValue{
		attribute.String("session.kind", string(session.Kind)),
		attribute.String("turn.outcome", string(outcome)),
	}
	span.SetAttributes(append(attrs,
		attribute.String("session.id", session.ID),
		attribute.Int("turn.frames", frames),
	)...)
	if err != nil {
		span.RecordError(err)
		if outcome == coach.OutcomeError {
			span.SetStatus(codes.Error, coach.Notice(err))
		}
	}
	// The turn context may already be cancelled; metrics still count.
	mctx := context.WithoutCancel(ctx)
	if o.turns != nil {
		o.turns.Add(mctx, 1, metric.WithAttributes(attrs...))
	}
	if o.duration != nil {
		o.duration.Record(mctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
	}

	o.logger.Info("turn finished", "outcome", outcome, "frames", frames, "duration", time.Since(start), "error", err)
	return outcome, err
}

// pump issues the request and applies the reply stream. It returns the
// turn outcome, the number of events applied, and the error to report.
func (o *Orchestrator) pump(ctx context.Context, turn coach.Turn, cfg *sendConfig) (coach.TurnOutcome, int, error) {
	s := o.conv.Session()
	stream, err := o.backend.SendMessage(ctx, s.ID, turn.Content)
	if err != nil {
		if ctx.Err() != nil {
			return coach.OutcomeAborted, 0, nil
		}
		return coach.OutcomeError, 0, err
	}
	defer stream.Close()

	outcome := coach.OutcomeEndTurn
	var turnErr error
	frames := 0
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return coach.OutcomeAborted, frames, nil
			}
			if errors.Is(err, coach.ErrContentLimit) && turnErr == nil {
				return coach.OutcomeLength, frames, err
			}
			if turnErr != nil {
				return coach.OutcomeError, frames, turnErr
			}
			return coach.OutcomeError, frames, err
		}

		applyErr := o.conv.Apply(turn, evt)
		frames++
		if o.frames != nil {
			o.frames.Add(ctx, 1)
		}
		cfg.notify(o.conv.Session())

		var serr *coach.ServerError
		switch {
		case applyErr == nil:
			if _, ok := evt.(coach.EventArtifact); ok && outcome != coach.OutcomeError {
				outcome = coach.OutcomeCompleted
			}
		case errors.Is(applyErr, coach.ErrContentLimit):
			return coach.OutcomeLength, frames, applyErr
		case errors.As(applyErr, &serr):
			// Keep draining; later deltas have nowhere to go.
			o.logger.Warn("server reported error", "error", applyErr)
			if turnErr == nil {
				turnErr = applyErr
			}
			outcome = coach.OutcomeError
		default:
			o.logger.Debug("event not applied", "error", applyErr)
		}
	}
	return outcome, frames, turnErr
}

// Cancel aborts the in-flight turn. It reports whether there was one.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel == nil {
		return false
	}
	o.cancel()
	return true
}

func (o *Orchestrator) setCancel(cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancel = cancel
}

func (o *Orchestrator) clearCancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// End closes the session on the backend, marks it completed, and then
// tries to fetch the artifact the backend may have produced. It returns
// the backend's summary. Send is rejected while End runs.
func (o *Orchestrator) End(ctx context.Context) (string, error) {
	o.mu.Lock()
	switch {
	case o.ending || o.conv.Streaming():
		o.mu.Unlock()
		return "", coach.ErrTurnInFlight
	case o.conv.Phase() == coach.PhaseCompleted:
		o.mu.Unlock()
		return "", coach.ErrSessionCompleted
	}
	o.ending = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.ending = false
		o.mu.Unlock()
	}()

	s := o.conv.Session()
	summary, err := o.backend.EndSession(ctx, s.ID)
	if err != nil {
		return "", err
	}
	if err := o.conv.End(); err != nil {
		return "", err
	}
	o.conv.SetSummary(summary)
	o.logger.Info("session ended")

	o.fetchArtifact(ctx)
	return summary, nil
}

// begin starts a turn unless End is in progress.
func (o *Orchestrator) begin(text string) (coach.Turn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ending {
		return coach.Turn{}, fmt.Errorf("chat: session is ending: %w", coach.ErrTurnInFlight)
	}
	return o.conv.Begin(text)
}

func (o *Orchestrator) fetchArtifact(ctx context.Context) {
	a, err := o.backend.FetchArtifact(ctx, o.conv.Session().ID)
	switch {
	case err == nil:
		o.conv.Attach(a)
	case errors.Is(err, coach.ErrNotFound):
		o.logger.Debug("no artifact stored")
	default:
		o.logger.Warn("failed to fetch artifact", "error", err)
	}
}
