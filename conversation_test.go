package coach_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/iklavya/coach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequentialIDs returns a deterministic id generator for tests.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func newConversation(t *testing.T, opts ...coach.ConversationOption) *coach.Conversation {
	t.Helper()
	opts = append([]coach.ConversationOption{coach.WithIDGenerator(sequentialIDs())}, opts...)
	return coach.NewConversation(coach.Session{ID: "s1", Kind: coach.KindGuidance}, opts...)
}

func TestConversation_Begin(t *testing.T) {
	t.Parallel()

	t.Run("appends user message and empty placeholder", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)

		turn, err := c.Begin("  Hi  ")
		require.NoError(t, err)
		assert.Equal(t, coach.Turn{UserID: "m1", AssistantID: "m2", Content: "Hi"}, turn)

		s := c.Session()
		assert.Equal(t, coach.PhaseActive, s.Phase)
		require.Len(t, s.Messages, 2)
		assert.Equal(t, coach.RoleUser, s.Messages[0].Role)
		assert.Equal(t, "Hi", s.Messages[0].Content)
		assert.Equal(t, coach.RoleAssistant, s.Messages[1].Role)
		assert.Empty(t, s.Messages[1].Content)
		assert.True(t, c.Streaming())
	})

	t.Run("rejects blank text", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)

		_, err := c.Begin(" \n\t")
		assert.ErrorIs(t, err, coach.ErrValidation)
		assert.Empty(t, c.Session().Messages)
	})

	t.Run("rejects while a turn is in flight", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		_, err := c.Begin("first")
		require.NoError(t, err)

		_, err = c.Begin("second")
		assert.ErrorIs(t, err, coach.ErrTurnInFlight)
		assert.Len(t, c.Session().Messages, 2)
	})

	t.Run("rejects once completed", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		require.NoError(t, c.End())

		_, err := c.Begin("hello?")
		assert.ErrorIs(t, err, coach.ErrSessionCompleted)
		assert.Empty(t, c.Session().Messages)
	})

	t.Run("zero phase defaults to active", func(t *testing.T) {
		t.Parallel()
		c := coach.NewConversation(coach.Session{ID: "s"})
		assert.Equal(t, coach.PhaseActive, c.Phase())
	})
}

func TestConversation_Apply(t *testing.T) {
	t.Parallel()

	t.Run("deltas concatenate in order", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		turn, err := c.Begin("Hi")
		require.NoError(t, err)

		for _, d := range []string{"Hel", "lo, ", "world"} {
			require.NoError(t, c.Apply(turn, coach.EventTextDelta{Text: d}))
		}
		c.Finish(turn, coach.OutcomeEndTurn)

		s := c.Session()
		require.Len(t, s.Messages, 2)
		assert.Equal(t, "Hello, world", s.Messages[1].Content)
		assert.Equal(t, coach.PhaseActive, s.Phase)
		assert.False(t, c.Streaming())
	})

	t.Run("artifact completes the session", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		turn, err := c.Begin("Hi")
		require.NoError(t, err)

		first := coach.Analysis{AnalysisMarkdown: "# Draft"}
		second := coach.Analysis{AnalysisMarkdown: "# Final"}
		require.NoError(t, c.Apply(turn, coach.EventArtifact{Artifact: first}))
		require.NoError(t, c.Apply(turn, coach.EventArtifact{Artifact: second}))

		s := c.Session()
		assert.Equal(t, coach.PhaseCompleted, s.Phase)
		assert.Equal(t, second, s.Artifact)
	})

	t.Run("error event drops placeholder and keeps user message", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		turn, err := c.Begin("Hi")
		require.NoError(t, err)
		require.NoError(t, c.Apply(turn, coach.EventTextDelta{Text: "partial"}))

		err = c.Apply(turn, coach.EventError{Message: "model overloaded"})
		var serr *coach.ServerError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, "model overloaded", serr.Message)

		// Late deltas for the discarded message are ignored.
		require.NoError(t, c.Apply(turn, coach.EventTextDelta{Text: "more"}))
		c.Finish(turn, coach.OutcomeError)

		s := c.Session()
		require.Len(t, s.Messages, 1)
		assert.Equal(t, coach.RoleUser, s.Messages[0].Role)
		assert.Equal(t, coach.PhaseActive, s.Phase)
	})

	t.Run("stale turn is ignored", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		turn, err := c.Begin("Hi")
		require.NoError(t, err)
		c.Finish(turn, coach.OutcomeEndTurn)

		require.NoError(t, c.Apply(turn, coach.EventArtifact{Artifact: coach.Analysis{}}))
		assert.Equal(t, coach.PhaseActive, c.Phase())
	})

	t.Run("content cap truncates at grapheme boundary", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t, coach.WithMaxContent(6))
		turn, err := c.Begin("Hi")
		require.NoError(t, err)

		require.NoError(t, c.Apply(turn, coach.EventTextDelta{Text: "abc"}))
		// e + combining acute is one 3-byte cluster; "d" plus the cluster
		// would need 4 bytes, so just "d" fits in the remaining 3.
		err = c.Apply(turn, coach.EventTextDelta{Text: "de\u0301f"})
		assert.ErrorIs(t, err, coach.ErrContentLimit)
		err = c.Apply(turn, coach.EventTextDelta{Text: "zzz"})
		assert.ErrorIs(t, err, coach.ErrContentLimit)

		c.Finish(turn, coach.OutcomeLength)
		s := c.Session()
		require.Len(t, s.Messages, 2)
		assert.Equal(t, "abcd", s.Messages[1].Content)
	})

	t.Run("content grows monotonically", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		turn, err := c.Begin("Hi")
		require.NoError(t, err)

		prev := 0
		for i := 0; i < 50; i++ {
			require.NoError(t, c.Apply(turn, coach.EventTextDelta{Text: strings.Repeat("x", i%3)}))
			n := len(c.Session().Messages[1].Content)
			assert.GreaterOrEqual(t, n, prev)
			prev = n
		}
	})
}

func TestConversation_Finish(t *testing.T) {
	t.Parallel()

	t.Run("abort keeps partial content", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		turn, err := c.Begin("Hi")
		require.NoError(t, err)
		require.NoError(t, c.Apply(turn, coach.EventTextDelta{Text: "Hel"}))
		require.NoError(t, c.Apply(turn, coach.EventTextDelta{Text: "lo"}))

		c.Finish(turn, coach.OutcomeAborted)

		s := c.Session()
		require.Len(t, s.Messages, 2)
		assert.Equal(t, "Hello", s.Messages[1].Content)
		assert.Equal(t, coach.PhaseActive, s.Phase)
	})

	t.Run("empty placeholder is always dropped", func(t *testing.T) {
		t.Parallel()
		for _, outcome := range []coach.TurnOutcome{
			coach.OutcomeEndTurn, coach.OutcomeAborted, coach.OutcomeCompleted,
		} {
			c := newConversation(t)
			turn, err := c.Begin("Hi")
			require.NoError(t, err)
			c.Finish(turn, outcome)
			assert.Len(t, c.Session().Messages, 1, "outcome %s", outcome)
		}
	})

	t.Run("error drops partial content", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		turn, err := c.Begin("Hi")
		require.NoError(t, err)
		require.NoError(t, c.Apply(turn, coach.EventTextDelta{Text: "Hel"}))

		c.Finish(turn, coach.OutcomeError)

		s := c.Session()
		require.Len(t, s.Messages, 1)
		assert.Equal(t, "Hi", s.Messages[0].Content)
	})

	t.Run("allows the next turn", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		turn, err := c.Begin("one")
		require.NoError(t, err)
		c.Finish(turn, coach.OutcomeEndTurn)

		_, err = c.Begin("two")
		assert.NoError(t, err)
	})
}

func TestConversation_End(t *testing.T) {
	t.Parallel()

	t.Run("completes without artifact", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		require.NoError(t, c.End())

		s := c.Session()
		assert.Equal(t, coach.PhaseCompleted, s.Phase)
		assert.Nil(t, s.Artifact)
	})

	t.Run("rejected while streaming", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		_, err := c.Begin("Hi")
		require.NoError(t, err)

		assert.ErrorIs(t, c.End(), coach.ErrTurnInFlight)
		assert.Equal(t, coach.PhaseActive, c.Phase())
	})

	t.Run("attach records fetched artifact", func(t *testing.T) {
		t.Parallel()
		c := newConversation(t)
		require.NoError(t, c.End())
		c.Attach(coach.Analysis{AnalysisMarkdown: "# Later"})
		c.SetSummary("done")

		s := c.Session()
		assert.Equal(t, coach.Analysis{AnalysisMarkdown: "# Later"}, s.Artifact)
		assert.Equal(t, "done", s.Summary)
	})
}

func TestConversation_SessionSnapshotIsIsolated(t *testing.T) {
	t.Parallel()
	c := newConversation(t)
	turn, err := c.Begin("Hi")
	require.NoError(t, err)

	snap := c.Session()
	require.NoError(t, c.Apply(turn, coach.EventTextDelta{Text: "later"}))

	assert.Empty(t, snap.Messages[1].Content)
	assert.Equal(t, "later", c.Session().Messages[1].Content)
}
