// Package bubbletea provides a Bubble Tea TUI for a coaching session.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iklavya/coach"
)

// SendFunc runs one user turn. onUpdate receives a session snapshot after
// each change. The function blocks until the turn ends or ctx is
// cancelled.
type SendFunc func(ctx context.Context, text string, onUpdate func(coach.Session)) (coach.TurnOutcome, error)

// EndFunc ends the session on the backend and returns the resulting
// session.
type EndFunc func(ctx context.Context) (coach.Session, error)

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits and returns the final model. The program quits when ctx
// is cancelled.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// SessionMsg delivers a session snapshot from a running turn.
type SessionMsg struct {
	Session coach.Session
}

// TurnDoneMsg signals that a turn has ended. Session is the last snapshot
// the turn produced, or nil when it produced none.
type TurnDoneMsg struct {
	Outcome coach.TurnOutcome
	Err     error
	Session *coach.Session
}

// EndedMsg signals that an end-session request has returned.
type EndedMsg struct {
	Session coach.Session
	Err     error
}
