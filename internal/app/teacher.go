package app

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-quiz/internal/notify"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/state"
)

func (m *Machine) Library() ([]quiz.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.can(rbac.PermLibraryManage); err != nil {
		return nil, err
	}
	return m.deps.Store.Library(), nil
}

// AddQuestion validates d and puts the new question at the front of the
// library.
func (m *Machine) AddQuestion(ctx context.Context, d quiz.Draft) (quiz.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.can(rbac.PermLibraryManage); err != nil {
		return quiz.Question{}, err
	}
	q, err := quiz.NewCustomQuestion(d)
	if err != nil {
		return quiz.Question{}, err
	}
	err = m.deps.Store.UpdateLibrary(ctx, func(lib []quiz.Question) ([]quiz.Question, error) {
		return quiz.Prepend(lib, q), nil
	})
	return q, err
}

// DeleteQuestion reports whether id was in the library.
func (m *Machine) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.can(rbac.PermLibraryManage); err != nil {
		return false, err
	}
	var found bool
	err := m.deps.Store.UpdateLibrary(ctx, func(lib []quiz.Question) ([]quiz.Question, error) {
		var out []quiz.Question
		out, found = quiz.Remove(lib, id)
		return out, nil
	})
	return found, err
}

// Notifications lists the ledger entries in the caller's scope, newest first.
func (m *Machine) Notifications() ([]notify.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.can(rbac.PermNotificationsView); err != nil {
		return nil, err
	}
	return m.deps.Store.Ledger().Visible(m.viewer()), nil
}

// Unread is zero for users who cannot view notifications.
func (m *Machine) Unread() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unread()
}

func (m *Machine) unread() int {
	if m.can(rbac.PermNotificationsView) != nil {
		return 0
	}
	return m.deps.Store.Ledger().Unread(m.viewer())
}

// MarkRead flips one entry in the caller's scope. Unknown ids are a no-op.
func (m *Machine) MarkRead(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.can(rbac.PermNotificationsView); err != nil {
		return false, err
	}
	v := m.viewer()
	var found bool
	err := m.deps.Store.UpdateLedger(ctx, func(l *notify.Ledger) error {
		for _, n := range l.Visible(v) {
			if n.ID == id {
				found = l.MarkRead(id)
				break
			}
		}
		return nil
	})
	return found, err
}

// ClearNotifications removes the caller's scope: everything for an admin,
// only the caller's own entries for a teacher.
func (m *Machine) ClearNotifications(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.can(rbac.PermNotificationsView); err != nil {
		return 0, err
	}
	v := m.viewer()
	var removed int
	err := m.deps.Store.UpdateLedger(ctx, func(l *notify.Ledger) error {
		removed = l.Clear(v)
		return nil
	})
	return removed, err
}

func (m *Machine) Branding() state.Branding {
	return m.deps.Store.Branding()
}

// SaveBranding persists b and returns to Home when saved from the
// settings screen.
func (m *Machine) SaveBranding(ctx context.Context, b state.Branding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.can(rbac.PermSettingsManage); err != nil {
		return err
	}
	if err := m.deps.Store.SaveBranding(ctx, b); err != nil {
		return fmt.Errorf("save branding: %w", err)
	}
	if m.screen == ScreenAdminSettings {
		m.screen = ScreenHome
	}
	return nil
}
