// Package api implements [coach.Backend] for the career backend's REST and
// SSE endpoints.
//
// One Client serves one session kind. Kinds share the wire protocol and
// differ only in their paths and in the terminal stream event that
// completes a session (analysis for guidance, resume_ready for the resume
// builder).
package api

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/iklavya/coach"
)

// DefaultBaseURL is the local development address of the backend.
const DefaultBaseURL = "http://localhost:8000"

// routes holds the REST paths for one session kind.
type routes struct {
	sessions string // collection, also the prefix of a single session
	artifact func(id string) string
	end      bool // whether the kind supports an explicit end
}

var kindRoutes = map[coach.Kind]routes{
	coach.KindGuidance: {
		sessions: "/sessions",
		artifact: func(id string) string { return "/sessions/" + url.PathEscape(id) + "/analysis" },
		end:      true,
	},
	coach.KindResume: {
		sessions: "/resume/sessions",
		artifact: func(id string) string { return "/resume/by-session/" + url.PathEscape(id) },
	},
}

func (r routes) session(id string) string {
	return r.sessions + "/" + url.PathEscape(id)
}

// apiSession is a session row as returned by the backend.
type apiSession struct {
	ID                flexString `json:"id"`
	Title             string     `json:"title"`
	Status            string     `json:"status"`
	Template          string     `json:"template"`
	StartedAt         flexTime   `json:"started_at"`
	UpdatedAt         flexTime   `json:"updated_at"`
	AnalysisGenerated flexBool   `json:"analysis_generated"`
	Summary           string     `json:"summary"`
}

type apiMessage struct {
	ID        flexString `json:"id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	CreatedAt flexTime   `json:"created_at"`
}

// sessionEnvelope is the GET /sessions/{id} response.
type sessionEnvelope struct {
	Session  apiSession   `json:"session"`
	Messages []apiMessage `json:"messages"`
}

type sessionList struct {
	Sessions []apiSession `json:"sessions"`
}

type messageRequest struct {
	Content string `json:"content"`
}

type createRequest struct {
	Title string `json:"title"`
}

type endResponse struct {
	Summary string `json:"summary"`
}

type templateRequest struct {
	Template string `json:"template"`
}

// Stream payloads.

type textPayload struct {
	Text string `json:"text"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type analysisPayload struct {
	AnalysisJSON     flexString `json:"analysis_json"`
	AnalysisMarkdown flexString `json:"analysis_markdown"`
	RoadmapJSON      flexString `json:"roadmap_json"`
}

type resumePayload struct {
	ID         flexString `json:"id"`
	ResumeID   flexString `json:"resume_id"`
	ResumeJSON flexString `json:"resume_json"`
	Template   string     `json:"template"`
}

type apiATSCategory struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Max        float64 `json:"max"`
	Percentage float64 `json:"percentage"`
	Tip        string  `json:"tip"`
	Grade      string  `json:"grade"`
	Type       string  `json:"type"`
}

type apiATSScore struct {
	TotalScore         float64          `json:"total_score"`
	MaxScore           float64          `json:"max_score"`
	DeterministicTotal float64          `json:"deterministic_total"`
	SemanticTotal      float64          `json:"semantic_total"`
	Categories         []apiATSCategory `json:"categories"`
	MatchedKeywords    []string         `json:"matched_keywords"`
	MissingKeywords    []string         `json:"missing_keywords"`
	Suggestions        []string         `json:"suggestions"`
}

// apiError is a non-2xx response body. The proxy layer uses "error", the
// backend itself uses FastAPI's "detail", which may be a string or a list
// of validation problems.
type apiError struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

func (e apiError) message() string {
	if e.Error != "" {
		return e.Error
	}
	var s string
	if json.Unmarshal(e.Detail, &s) == nil {
		return s
	}
	var problems []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(e.Detail, &problems) == nil && len(problems) > 0 {
		return problems[0].Msg
	}
	return ""
}

// flexString accepts a JSON string, number, or any other value. Non-string
// values keep their raw JSON text, so ids stored as integers and documents
// sent as objects both decode. null decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// flexBool accepts true/false as well as the 0/1 integers SQLite hands back.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch s := string(bytes.TrimSpace(b)); s {
	case "true":
		*f = true
	case "false", "null":
		*f = false
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}

// timeLayouts are the timestamp shapes the backend emits: RFC 3339 from
// Pydantic, and naive ISO or SQLite text when a column is passed through.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// flexTime decodes any of timeLayouts. Unrecognized values decode to the
// zero time rather than failing the whole response.
type flexTime time.Time

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		*f = flexTime{}
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*f = flexTime(t)
			return nil
		}
	}
	*f = flexTime{}
	return nil
}
