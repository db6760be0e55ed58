package app

import (
	"github.com/mind-engage/mindengage-quiz/internal/auth"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/state"
)

// Snapshot is everything a client needs to render the current screen.
type Snapshot struct {
	Screen     Screen          `json:"screen"`
	User       *auth.User      `json:"user,omitempty"`
	Settings   quiz.Settings   `json:"settings"`
	Error      string          `json:"error,omitempty"`
	Session    *session.View   `json:"session,omitempty"`
	Result     *grading.Result `json:"result,omitempty"`
	ResultSent bool            `json:"result_sent"`
	Unread     int             `json:"unread"`
	Branding   state.Branding  `json:"branding"`
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		Screen:     m.screen,
		Settings:   m.settings,
		Error:      m.errMsg,
		ResultSent: m.sent,
		Branding:   m.deps.Store.Branding(),
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
		s.Unread = m.unread()
	}
	if m.screen == ScreenInQuiz && m.sess != nil {
		v := m.sess.View()
		s.Session = &v
	}
	if m.result != nil {
		r := *m.result
		s.Result = &r
	}
	return s
}
