package bubbletea_test

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/iklavya/coach"
	bt "github.com/iklavya/coach/bubbletea"
	"github.com/stretchr/testify/require"
)

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, send bt.SendFunc, end bt.EndFunc, session coach.Session) bt.Model {
	t.Helper()
	return initModelWithSize(t, send, end, session, 80, 24)
}

func initModelWithSize(t *testing.T, send bt.SendFunc, end bt.EndFunc, session coach.Session, width, height int) bt.Model {
	t.Helper()
	m := bt.New(send, end, session, coach.DefaultTheme())
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

func typeInput(t *testing.T, ti textinput.Model, s string) textinput.Model {
	t.Helper()
	for _, r := range s {
		ti, _ = ti.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return ti
}

// nopSend is a SendFunc that ends every turn without output.
func nopSend(context.Context, string, func(coach.Session)) (coach.TurnOutcome, error) {
	return coach.OutcomeEndTurn, nil
}

func activeSession() coach.Session {
	return coach.Session{ID: "s1", Kind: coach.KindGuidance, Title: "Data careers", Phase: coach.PhaseActive}
}

// withReply returns s extended by a user turn and an assistant reply.
func withReply(s coach.Session, user, reply string) coach.Session {
	s.Messages = append(append([]coach.Message(nil), s.Messages...),
		coach.Message{ID: "u" + user, Role: coach.RoleUser, Content: user},
		coach.Message{ID: "a" + user, Role: coach.RoleAssistant, Content: reply},
	)
	return s
}
