package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iklavya/coach"
	"github.com/iklavya/coach/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendMessageRequestFormat(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions/abc/message", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := api.New(coach.KindGuidance, api.WithBaseURL(srv.URL), api.WithToken("tok"))
	s, err := client.SendMessage(context.Background(), "abc", "I like data")
	require.NoError(t, err)
	defer s.Close()

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.Equal(t, map[string]any{"content": "I like data"}, body)
}

func TestClient_NoTokenNoAuthHeader(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"sessions": []}`)
	}))
	defer srv.Close()

	sessions, err := api.New(coach.KindGuidance, api.WithBaseURL(srv.URL)).ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestClient_HTTPErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error field", 500, `{"error": "Session expired"}`, "Session expired"},
		{"detail string", 403, `{"detail": "Not your session"}`, "Not your session"},
		{"detail list", 422, `{"detail": [{"loc": ["body","content"], "msg": "field required"}]}`, "field required"},
		{"error wins over detail", 400, `{"error": "a", "detail": "b"}`, "a"},
		{"not json", 502, `<html>Bad Gateway</html>`, ""},
		{"empty", 500, ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := api.New(coach.KindGuidance, api.WithBaseURL(srv.URL))
			_, err := client.SendMessage(context.Background(), "s1", "Hi")
			require.Error(t, err)

			var serr *coach.ServerError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.status, serr.Status)
			assert.Equal(t, tt.message, serr.Message)
			if tt.message == "" {
				assert.Equal(t, coach.FallbackSendFailure, coach.Notice(err))
			} else {
				assert.Equal(t, tt.message, coach.Notice(err))
			}
		})
	}
}

func TestClient_NotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail": "Analysis not found"}`)
	}))
	defer srv.Close()

	_, err := api.New(coach.KindGuidance, api.WithBaseURL(srv.URL)).FetchArtifact(context.Background(), "s1")
	assert.ErrorIs(t, err, coach.ErrNotFound)
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := api.New(coach.KindGuidance, api.WithBaseURL(url)).SendMessage(context.Background(), "s1", "Hi")
	require.Error(t, err)
	var serr *coach.ServerError
	assert.False(t, errors.As(err, &serr))
	assert.ErrorIs(t, err, coach.ErrConnectionLost)
}

func TestClient_CancelledBeforeResponse(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := api.New(coach.KindGuidance, api.WithBaseURL("http://127.0.0.1:1")).SendMessage(ctx, "s1", "Hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, coach.ErrConnectionLost)
}

func TestClient_LoadSession(t *testing.T) {
	t.Parallel()

	t.Run("guidance", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/sessions/s1", r.URL.Path)
			_, _ = io.WriteString(w, `{
				"session": {"id": "s1", "title": "Career Guidance", "status": "completed",
					"started_at": "2025-03-01 10:00:00", "analysis_generated": 1},
				"messages": [
					{"id": 1, "role": "assistant", "content": "What do you enjoy?", "created_at": "2025-03-01T10:00:01Z"},
					{"id": 2, "role": "user", "content": "Puzzles"}
				]
			}`)
		}))
		defer srv.Close()

		s, err := api.New(coach.KindGuidance, api.WithBaseURL(srv.URL)).LoadSession(context.Background(), "s1")
		require.NoError(t, err)

		assert.Equal(t, "s1", s.ID)
		assert.Equal(t, coach.KindGuidance, s.Kind)
		assert.Equal(t, "Career Guidance", s.Title)
		assert.Equal(t, coach.PhaseCompleted, s.Phase)
		assert.True(t, s.ArtifactReady)
		assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), s.CreatedAt)
		require.Len(t, s.Messages, 2)
		assert.Equal(t, coach.Message{
			ID:        "1",
			Role:      coach.RoleAssistant,
			Content:   "What do you enjoy?",
			Timestamp: time.Date(2025, 3, 1, 10, 0, 1, 0, time.UTC),
		}, s.Messages[0])
		assert.Equal(t, "2", s.Messages[1].ID)
	})

	t.Run("resume", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/resume/sessions/r1", r.URL.Path)
			_, _ = io.WriteString(w, `{"session": {"id": "r1", "title": "New Resume", "status": "active", "template": "modern"}, "messages": []}`)
		}))
		defer srv.Close()

		s, err := api.New(coach.KindResume, api.WithBaseURL(srv.URL)).LoadSession(context.Background(), "r1")
		require.NoError(t, err)
		assert.Equal(t, coach.PhaseActive, s.Phase)
		assert.Equal(t, "modern", s.Template)
		assert.False(t, s.ArtifactReady)
		assert.Empty(t, s.Messages)
	})

	t.Run("unknown status is active", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"session": {"id": "s1", "analysis_generated": false}, "messages": []}`)
		}))
		defer srv.Close()

		s, err := api.New(coach.KindGuidance, api.WithBaseURL(srv.URL)).LoadSession(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, coach.PhaseActive, s.Phase)
		assert.False(t, s.ArtifactReady)
	})
}

func TestClient_ListAndCreate(t *testing.T) {
	t.Parallel()
	var created []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resume/sessions", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"sessions": [
				{"id": "r1", "title": "Resume A", "status": "completed"},
				{"id": "r2", "title": "Resume B", "status": "active"}
			]}`)
		case http.MethodPost:
			created, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id": "r3", "status": "active"}`)
		}
	}))
	defer srv.Close()
	client := api.New(coach.KindResume, api.WithBaseURL(srv.URL))

	list, err := client.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r1", list[0].ID)
	assert.True(t, list[0].ArtifactReady)
	assert.Equal(t, coach.KindResume, list[1].Kind)

	s, err := client.CreateSession(context.Background(), "New Resume")
	require.NoError(t, err)
	assert.Equal(t, "r3", s.ID)
	assert.Equal(t, "New Resume", s.Title)
	assert.JSONEq(t, `{"title": "New Resume"}`, string(created))
}

func TestClient_FetchArtifact(t *testing.T) {
	t.Parallel()

	t.Run("analysis", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/sessions/s1/analysis", r.URL.Path)
			_, _ = io.WriteString(w, `{"analysis_json": "{\"fit\":1}", "analysis_markdown": "# Report", "roadmap_json": null}`)
		}))
		defer srv.Close()

		a, err := api.New(coach.KindGuidance, api.WithBaseURL(srv.URL)).FetchArtifact(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, coach.Analysis{AnalysisJSON: `{"fit":1}`, AnalysisMarkdown: "# Report"}, a)
	})

	t.Run("resume", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/resume/by-session/r1", r.URL.Path)
			_, _ = io.WriteString(w, `{"id": 7, "resume_json": {"name": "A"}, "template": "classic"}`)
		}))
		defer srv.Close()

		a, err := api.New(coach.KindResume, api.WithBaseURL(srv.URL)).FetchArtifact(context.Background(), "r1")
		require.NoError(t, err)
		assert.Equal(t, coach.Resume{ResumeID: "7", ResumeJSON: `{"name": "A"}`, Template: "classic"}, a)
	})
}

func TestClient_EndSession(t *testing.T) {
	t.Parallel()

	t.Run("guidance returns summary", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/sessions/s1/end", r.URL.Path)
			_, _ = io.WriteString(w, `{"summary": "Thanks for chatting"}`)
		}))
		defer srv.Close()

		summary, err := api.New(coach.KindGuidance, api.WithBaseURL(srv.URL)).EndSession(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, "Thanks for chatting", summary)
	})

	t.Run("resume is not supported", func(t *testing.T) {
		t.Parallel()
		_, err := api.New(coach.KindResume, api.WithBaseURL("http://unused.invalid")).EndSession(context.Background(), "r1")
		assert.ErrorIs(t, err, coach.ErrNotSupported)
	})
}

func TestClient_UnknownKind(t *testing.T) {
	t.Parallel()
	_, err := api.New(coach.Kind("quiz")).LoadSession(context.Background(), "x")
	assert.ErrorIs(t, err, coach.ErrNotSupported)
}

func TestClient_ScoreResume(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/resume/r9/ats-score", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"total_score": 72.6, "max_score": 100, "deterministic_total": 40, "semantic_total": 32.6,
			"categories": [{"key": "kw", "label": "Keywords", "score": 18, "max": 25, "percentage": 72, "grade": "C", "type": "semantic"}],
			"matched_keywords": ["SQL"], "missing_keywords": ["Tableau"], "suggestions": ["Quantify impact"]
		}`)
	}))
	defer srv.Close()

	score, err := api.New(coach.KindResume, api.WithBaseURL(srv.URL)).ScoreResume(context.Background(), "r9")
	require.NoError(t, err)
	assert.Equal(t, 73, score.TotalScore)
	assert.Equal(t, 100, score.MaxScore)
	assert.Equal(t, "Good", score.Label())
	require.Len(t, score.Categories, 1)
	assert.Equal(t, coach.ATSCategory{Key: "kw", Label: "Keywords", Score: 18, Max: 25, Percentage: 72, Grade: "C", Type: "semantic"}, score.Categories[0])
	assert.Equal(t, []string{"Tableau"}, score.MissingKeywords)
}

func TestClient_DownloadResume(t *testing.T) {
	t.Parallel()
	pdf := []byte("%PDF-1.7\n...")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resume/r9/download", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	n, err := api.New(coach.KindResume, api.WithBaseURL(srv.URL)).DownloadResume(context.Background(), "r9", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(pdf)), n)
	assert.Equal(t, pdf, buf.Bytes())
}

func TestClient_SetTemplate(t *testing.T) {
	t.Parallel()
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/resume/r9/template", r.URL.Path)
		body, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"ok": true}`)
	}))
	defer srv.Close()
	client := api.New(coach.KindResume, api.WithBaseURL(srv.URL))

	require.NoError(t, client.SetTemplate(context.Background(), "r9", "modern"))
	assert.JSONEq(t, `{"template": "modern"}`, string(body))

	err := client.SetTemplate(context.Background(), "r9", "")
	assert.ErrorIs(t, err, coach.ErrValidation)
}
