package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/notify"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

func (m *Machine) UpdateSettings(s quiz.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.in(ScreenHome, ScreenConfiguring); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	m.settings = s
	return nil
}

// BeginQuiz starts a quiz from the current settings. A library quiz goes
// straight to InQuiz and the returned ticket is empty. An AI quiz moves to
// Generating and returns the ticket FinishGeneration must present.
func (m *Machine) BeginQuiz() (ticket string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.can(rbac.PermQuizTake); err != nil {
		return "", err
	}
	if err := m.in(ScreenHome, ScreenConfiguring); err != nil {
		return "", err
	}
	m.resetQuiz()

	if m.settings.Source == quiz.SourceLibrary {
		qs, err := quiz.Select(m.deps.Store.Library(), m.settings, m.deps.Rand)
		if err != nil {
			m.errMsg = MsgNoMatchingQuestions
			return "", err
		}
		if err := m.startSession(qs); err != nil {
			log.Printf("app: library quiz for %s: %v", m.user.Username, err)
			m.errMsg = MsgLibraryUnusable
			return "", err
		}
		return "", nil
	}

	m.ticket = uuid.NewString()
	m.screen = ScreenGenerating
	return m.ticket, nil
}

func (m *Machine) startSession(qs []quiz.Question) error {
	s, err := session.New(qs)
	if err != nil {
		return err
	}
	m.sess = s
	m.screen = ScreenInQuiz
	return nil
}

// FinishGeneration delivers the outcome of the generation identified by
// ticket. It returns ErrStaleGeneration, changing nothing, when the machine
// has since left Generating or started another generation.
func (m *Machine) FinishGeneration(ticket string, qs []quiz.Question, genErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screen != ScreenGenerating || ticket == "" || ticket != m.ticket {
		return ErrStaleGeneration
	}
	m.ticket = ""
	if genErr == nil {
		genErr = m.startSession(qs)
	}
	if genErr != nil {
		log.Printf("app: generation for %s failed: %v", m.user.Username, genErr)
		m.errMsg = MsgGenerationFailed
		m.screen = ScreenHome
		return fmt.Errorf("%w: %w", ErrGenerationFailed, genErr)
	}
	return nil
}

// StartQuiz runs BeginQuiz and, for AI quizzes, the generation call and
// FinishGeneration. The machine is unlocked while the generator runs.
func (m *Machine) StartQuiz(ctx context.Context) error {
	ticket, err := m.BeginQuiz()
	if err != nil || ticket == "" {
		return err
	}
	settings := m.Settings()
	if m.deps.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.deps.GenerationTimeout)
		defer cancel()
	}
	var qs []quiz.Question
	if m.deps.Generator == nil {
		err = errors.New("no question generator configured")
	} else {
		qs, err = m.deps.Generator.Generate(ctx, settings)
	}
	return m.FinishGeneration(ticket, qs, err)
}

func (m *Machine) inQuiz() error {
	if m.screen != ScreenInQuiz || m.sess == nil {
		return ErrInvalidTransition
	}
	return nil
}

func (m *Machine) SelectOption(questionID string, option int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.inQuiz(); err != nil {
		return err
	}
	return m.sess.SelectOption(questionID, option)
}

// Next advances the session. Advancing past the last question scores the
// quiz and moves to Result.
func (m *Machine) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.inQuiz(); err != nil {
		return err
	}
	done, err := m.sess.Advance()
	if err != nil || !done {
		return err
	}
	qs, answers, err := m.sess.Outcome()
	if err != nil {
		return err
	}
	res := grading.Evaluate(qs, answers)
	m.result = &res
	m.screen = ScreenResult
	return nil
}

func (m *Machine) Prev() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.inQuiz(); err != nil {
		return err
	}
	return m.sess.Retreat()
}

// Cancel abandons the running quiz, or the pending generation, and returns
// Home without a result.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.in(ScreenInQuiz, ScreenGenerating); err != nil {
		return err
	}
	if m.sess != nil {
		m.sess.Cancel()
	}
	m.resetQuiz()
	m.screen = ScreenHome
	return nil
}

// Restart clears the finished quiz and returns Home.
func (m *Machine) Restart() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.in(ScreenResult); err != nil {
		return err
	}
	m.resetQuiz()
	m.screen = ScreenHome
	return nil
}

// SendToTeacher records the result in the ledger for the student's teacher
// and fans it out to the publisher. The machine stays on Result.
func (m *Machine) SendToTeacher(ctx context.Context) (notify.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.in(ScreenResult); err != nil {
		return notify.Notification{}, err
	}
	if err := m.can(rbac.PermResultSend); err != nil {
		return notify.Notification{}, err
	}
	if m.user.TeacherID == "" {
		return notify.Notification{}, ErrNoTeacher
	}
	if m.sent {
		return notify.Notification{}, ErrAlreadySent
	}

	n := notify.New(m.user.FullName, m.user.Username, m.user.TeacherID,
		m.settings.Subject, m.settings.DisplayTopic(),
		m.result.Score, m.result.Total, m.deps.Now())
	err := m.deps.Store.UpdateLedger(ctx, func(l *notify.Ledger) error {
		l.Append(n)
		return nil
	})
	if err != nil {
		return notify.Notification{}, fmt.Errorf("record result: %w", err)
	}
	m.sent = true
	if err := m.deps.Publisher.Publish(ctx, n); err != nil {
		log.Printf("app: publish notification %s: %v", n.ID, err)
	}
	return n, nil
}
