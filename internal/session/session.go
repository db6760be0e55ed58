// Package session tracks one run through a fixed, ordered question list:
// the current position, the recorded answers and navigation legality.
package session

import (
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var (
	ErrUnanswered      = errors.New("current question has no recorded answer")
	ErrAtFirst         = errors.New("already at the first question")
	ErrComplete        = errors.New("session already complete")
	ErrCancelled       = errors.New("session cancelled")
	ErrNotComplete     = errors.New("session not complete")
	ErrUnknownQuestion = errors.New("question not in session")
	ErrInvalidOption   = errors.New("option index out of range")
)

type State string

const (
	StateActive    State = "active"
	StateComplete  State = "complete"
	StateCancelled State = "cancelled"
)

// Session is owned by a single caller and is not safe for concurrent use.
type Session struct {
	questions []quiz.Question
	index     map[string]int // question id -> position
	answers   map[string]int // question id -> selected option
	pos       int
	state     State
}

// New starts a session at the first question. The list is validated and
// copied; it never changes for the life of the session.
func New(questions []quiz.Question) (*Session, error) {
	if err := quiz.ValidateAll(questions); err != nil {
		return nil, err
	}
	qs := make([]quiz.Question, len(questions))
	copy(qs, questions)
	idx := make(map[string]int, len(qs))
	for i, q := range qs {
		idx[q.ID] = i
	}
	return &Session{
		questions: qs,
		index:     idx,
		answers:   make(map[string]int, len(qs)),
		state:     StateActive,
	}, nil
}

func (s *Session) State() State  { return s.state }
func (s *Session) Position() int { return s.pos }
func (s *Session) Total() int    { return len(s.questions) }
func (s *Session) IsLast() bool  { return s.pos == len(s.questions)-1 }

func (s *Session) Current() quiz.Question { return s.questions[s.pos] }

// Questions returns a copy of the session's question list.
func (s *Session) Questions() []quiz.Question {
	out := make([]quiz.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Answer looks up the recorded answer by question id.
func (s *Session) Answer(questionID string) (int, bool) {
	v, ok := s.answers[questionID]
	return v, ok
}

// Answers lists recorded answers in question order.
func (s *Session) Answers() []quiz.UserAnswer {
	out := make([]quiz.UserAnswer, 0, len(s.answers))
	for _, q := range s.questions {
		if v, ok := s.answers[q.ID]; ok {
			out = append(out, quiz.UserAnswer{QuestionID: q.ID, SelectedIndex: v})
		}
	}
	return out
}

func (s *Session) active() error {
	switch s.state {
	case StateComplete:
		return ErrComplete
	case StateCancelled:
		return ErrCancelled
	}
	return nil
}

// SelectOption records or replaces the answer for questionID.
func (s *Session) SelectOption(questionID string, option int) error {
	if err := s.active(); err != nil {
		return err
	}
	i, ok := s.index[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if option < 0 || option >= len(s.questions[i].Options) {
		return fmt.Errorf("%w: %d", ErrInvalidOption, option)
	}
	s.answers[questionID] = option
	return nil
}

// CanAdvance reports whether the current question has an answer.
func (s *Session) CanAdvance() bool {
	if s.state != StateActive {
		return false
	}
	_, ok := s.answers[s.Current().ID]
	return ok
}

func (s *Session) CanRetreat() bool { return s.state == StateActive && s.pos > 0 }

// Advance moves to the next question, or completes the session from the last
// one. done is true when the session became complete. Advancing an unanswered
// question returns ErrUnanswered and leaves the position unchanged.
func (s *Session) Advance() (done bool, err error) {
	if err := s.active(); err != nil {
		return false, err
	}
	if !s.CanAdvance() {
		return false, ErrUnanswered
	}
	if s.IsLast() {
		s.state = StateComplete
		return true, nil
	}
	s.pos++
	return false, nil
}

// Retreat moves back one question. Recorded answers are kept.
func (s *Session) Retreat() error {
	if err := s.active(); err != nil {
		return err
	}
	if s.pos == 0 {
		return ErrAtFirst
	}
	s.pos--
	return nil
}

// Progress is the display fraction (position+1)/total.
func (s *Session) Progress() float64 {
	return float64(s.pos+1) / float64(len(s.questions))
}

// Cancel discards the session; it yields no result.
func (s *Session) Cancel() {
	if s.state == StateActive {
		s.state = StateCancelled
	}
}

// Outcome returns the final question list and answers of a complete session.
func (s *Session) Outcome() ([]quiz.Question, []quiz.UserAnswer, error) {
	if s.state != StateComplete {
		return nil, nil, ErrNotComplete
	}
	return s.Questions(), s.Answers(), nil
}
