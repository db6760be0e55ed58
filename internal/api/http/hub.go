package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/app"
	"github.com/mind-engage/mindengage-quiz/internal/auth"
	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
)

// Hub owns one state machine per logged-in username. All machines share
// the same Deps, and through them the same library and ledger.
type Hub struct {
	deps app.Deps

	mu       sync.Mutex
	machines map[string]*app.Machine
	revoked  map[string]time.Time // token id -> token expiry
}

func NewHub(deps app.Deps) *Hub {
	return &Hub{deps: deps, machines: map[string]*app.Machine{}, revoked: map[string]time.Time{}}
}

// Login replaces any machine the user had with a fresh one on Home.
func (h *Hub) Login(_ context.Context, u auth.User) {
	m := app.NewMachine(h.deps)
	_ = m.Login(u)
	h.mu.Lock()
	h.machines[u.Username] = m
	h.mu.Unlock()
}

// Machine returns the caller's machine. A valid token without a machine
// (for example after a restart) gets one rebuilt from its claims.
func (h *Hub) Machine(r *http.Request) (*app.Machine, bool) {
	c := authmw.ClaimsFromContext(r.Context())
	if c == nil || c.Sub == "" {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, gone := h.revoked[c.ID]; gone && c.ID != "" {
		return nil, false
	}
	if m, ok := h.machines[c.Sub]; ok {
		return m, true
	}
	m := app.NewMachine(h.deps)
	_ = m.Login(userFromClaims(c))
	h.machines[c.Sub] = m
	return m, true
}

func userFromClaims(c *authmw.Claims) auth.User {
	u := auth.User{Username: c.Sub, FullName: c.Name, TeacherID: c.TeacherID, Role: auth.RoleStudent}
	switch c.Role {
	case "admin":
		u.Role, u.Admin = auth.RoleTeacher, true
	case "teacher":
		u.Role = auth.RoleTeacher
	}
	return u
}

// Logout ends the caller's machine and revokes the token it presented.
// Revocations live in memory until the token expires, so a token logged out
// before a restart is accepted again afterwards until its expiry.
func (h *Hub) Logout(r *http.Request) (*app.Machine, bool) {
	m, ok := h.Machine(r)
	if !ok {
		return nil, false
	}
	m.Logout()
	c := authmw.ClaimsFromContext(r.Context())

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.machines, c.Sub)
	now := time.Now()
	for id, exp := range h.revoked {
		if exp.Before(now) {
			delete(h.revoked, id)
		}
	}
	if c.ID != "" {
		exp := now.Add(24 * time.Hour)
		if c.ExpiresAt != nil {
			exp = c.ExpiresAt.Time
		}
		h.revoked[c.ID] = exp
	}
	return m, true
}
