package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/iklavya/coach"
	"github.com/iklavya/coach/sse"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Interface compliance check.
var _ coach.Backend = (*Client)(nil)

// Client implements [coach.Backend] for one session kind.
type Client struct {
	kind       coach.Kind
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	maxFrame   int
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the backend base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client. It should not set Timeout,
// which would also cut off long replies mid-stream.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token forwarded on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger for skipped frames and request failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMaxFrame bounds the bytes buffered for a single stream frame. A reply
// frame beyond it ends the stream with coach.ErrContentLimit.
func WithMaxFrame(n int) Option {
	return func(c *Client) { c.maxFrame = n }
}

// New creates a [Client] for sessions of the given kind.
func New(kind coach.Kind, opts ...Option) *Client {
	c := &Client{
		kind:       kind,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
		maxFrame:   sse.DefaultMaxFrame,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Kind returns the session kind this client serves.
func (c *Client) Kind() coach.Kind { return c.kind }

func (c *Client) routes() (routes, error) {
	r, ok := kindRoutes[c.kind]
	if !ok {
		return routes{}, fmt.Errorf("api: session kind %q: %w", c.kind, coach.ErrNotSupported)
	}
	return r, nil
}

// LoadSession fetches the session and its message history.
func (c *Client) LoadSession(ctx context.Context, id string) (coach.Session, error) {
	r, err := c.routes()
	if err != nil {
		return coach.Session{}, err
	}
	var env sessionEnvelope
	if err := c.doJSON(ctx, http.MethodGet, r.session(id), nil, &env); err != nil {
		return coach.Session{}, err
	}
	s := c.toSession(env.Session)
	if s.ID == "" {
		s.ID = id
	}
	s.Messages = make([]coach.Message, 0, len(env.Messages))
	for _, m := range env.Messages {
		s.Messages = append(s.Messages, coach.Message{
			ID:        string(m.ID),
			Role:      coach.Role(m.Role),
			Content:   m.Content,
			Timestamp: time.Time(m.CreatedAt),
		})
	}
	return s, nil
}

// ListSessions returns the caller's sessions of this kind without their
// messages.
func (c *Client) ListSessions(ctx context.Context) ([]coach.Session, error) {
	r, err := c.routes()
	if err != nil {
		return nil, err
	}
	var list sessionList
	if err := c.doJSON(ctx, http.MethodGet, r.sessions, nil, &list); err != nil {
		return nil, err
	}
	out := make([]coach.Session, 0, len(list.Sessions))
	for _, row := range list.Sessions {
		out = append(out, c.toSession(row))
	}
	return out, nil
}

// CreateSession starts a new session with the given title.
func (c *Client) CreateSession(ctx context.Context, title string) (coach.Session, error) {
	r, err := c.routes()
	if err != nil {
		return coach.Session{}, err
	}
	var row apiSession
	if err := c.doJSON(ctx, http.MethodPost, r.sessions, createRequest{Title: title}, &row); err != nil {
		return coach.Session{}, err
	}
	s := c.toSession(row)
	if s.Title == "" {
		s.Title = title
	}
	return s, nil
}

// FetchArtifact returns the stored analysis or resume of a session.
func (c *Client) FetchArtifact(ctx context.Context, id string) (coach.Artifact, error) {
	r, err := c.routes()
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, r.artifact(id), nil, &raw); err != nil {
		return nil, err
	}
	a, err := decodeArtifact(c.kind, raw)
	if err != nil {
		return nil, fmt.Errorf("api: artifact: %w", err)
	}
	return a, nil
}

// SendMessage posts a user turn and returns the reply stream. The stream
// stops when ctx is cancelled.
func (c *Client) SendMessage(ctx context.Context, id, content string) (coach.Stream, error) {
	r, err := c.routes()
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, r.session(id)+"/message", messageRequest{Content: content}, "text/event-stream")
	if err != nil {
		return nil, err
	}
	return newStream(ctx, resp.Body, c.kind, c.maxFrame, c.logger), nil
}

// EndSession closes a guidance session and returns the backend's summary.
// Resume sessions end only through their terminal event, so EndSession
// reports ErrNotSupported for them.
func (c *Client) EndSession(ctx context.Context, id string) (string, error) {
	r, err := c.routes()
	if err != nil {
		return "", err
	}
	if !r.end {
		return "", fmt.Errorf("api: end %s session: %w", c.kind, coach.ErrNotSupported)
	}
	var out endResponse
	if err := c.doJSON(ctx, http.MethodPost, r.session(id)+"/end", struct{}{}, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (c *Client) toSession(row apiSession) coach.Session {
	s := coach.Session{
		ID:        string(row.ID),
		Kind:      c.kind,
		Title:     row.Title,
		Phase:     coach.Phase(row.Status),
		Template:  row.Template,
		Summary:   row.Summary,
		CreatedAt: time.Time(row.StartedAt),
		UpdatedAt: time.Time(row.UpdatedAt),
	}
	if s.Phase != coach.PhaseCompleted {
		s.Phase = coach.PhaseActive
	}
	switch c.kind {
	case coach.KindGuidance:
		s.ArtifactReady = bool(row.AnalysisGenerated)
	case coach.KindResume:
		s.ArtifactReady = s.Phase == coach.PhaseCompleted
	}
	return s
}

// do sends a request with an optional JSON body and returns the response
// when the status is 2xx. Otherwise the body is closed and the failure is
// returned as a *coach.ServerError.
func (c *Client) do(ctx context.Context, method, path string, in any, accept string) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("api: %s %s: %w", method, path, ctxErr)
		}
		return nil, fmt.Errorf("api: %s %s: %w: %w", method, path, coach.ErrConnectionLost, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		err := parseHTTPError(resp)
		c.logger.Warn("request failed", "method", method, "path", path, "status", resp.StatusCode, "error", err)
		return nil, err
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.do(ctx, method, path, in, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("api: %s %s: decode response: %w", method, path, err)
	}
	return nil
}

func parseHTTPError(resp *http.Response) error {
	serr := &coach.ServerError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("api: %w", serr)
	}
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil {
		serr.Message = apiErr.message()
	}
	return fmt.Errorf("api: %w", serr)
}
