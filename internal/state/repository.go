// Package state holds the three independently persisted documents: the
// question library, the app branding and the notification ledger. Each is
// read once at startup and written through on every change.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mind-engage/mindengage-quiz/internal/kv"
	"github.com/mind-engage/mindengage-quiz/internal/notify"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const (
	KeyLibrary       = "library"
	KeyBranding      = "app_settings"
	KeyNotifications = "notifications"
)

var ErrInvalidBranding = errors.New("invalid branding")

type Branding struct {
	AppName     string `json:"app_name"`
	AppSubtitle string `json:"app_subtitle"`
	LogoURL     string `json:"logo_url,omitempty"`
}

func DefaultBranding() Branding {
	return Branding{AppName: "THCS TTGL", AppSubtitle: "Luyện tập"}
}

func (b Branding) Validate() error {
	if strings.TrimSpace(b.AppName) == "" {
		return fmt.Errorf("%w: app name required", ErrInvalidBranding)
	}
	return nil
}

type Repository struct {
	kv kv.Store

	mu       sync.Mutex
	library  []quiz.Question
	branding Branding
	ledger   *notify.Ledger
}

// Open loads every key. Missing or unreadable data falls back to the empty
// default for that key; Open itself never fails.
func Open(ctx context.Context, store kv.Store, defaults Branding) *Repository {
	r := &Repository{kv: store, branding: defaults, ledger: &notify.Ledger{}}

	var lib []quiz.Question
	if r.load(ctx, KeyLibrary, &lib) {
		seen := make(map[string]bool, len(lib))
		for _, q := range lib {
			if err := q.Validate(); err != nil {
				log.Printf("state: dropping library entry: %v", err)
				continue
			}
			if seen[q.ID] {
				log.Printf("state: dropping duplicate library id %s", q.ID)
				continue
			}
			seen[q.ID] = true
			r.library = append(r.library, q)
		}
	}

	var b Branding
	if r.load(ctx, KeyBranding, &b) {
		if err := b.Validate(); err != nil {
			log.Printf("state: ignoring stored branding: %v", err)
		} else {
			r.branding = b
		}
	}

	var items []notify.Notification
	if r.load(ctx, KeyNotifications, &items) {
		r.ledger = notify.NewLedger(items)
	}
	return r
}

func (r *Repository) load(ctx context.Context, key string, dst any) bool {
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false
	}
	if err != nil {
		log.Printf("state: read %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("state: parse %s: %v", key, err)
		return false
	}
	return true
}

// save writes through; a failed write is logged and the in-memory value
// stays authoritative.
func (r *Repository) save(ctx context.Context, key string, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		log.Printf("state: encode %s: %v", key, err)
		return
	}
	if err := r.kv.Put(ctx, key, buf); err != nil {
		log.Printf("state: write %s: %v", key, err)
	}
}

func (r *Repository) Library() []quiz.Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]quiz.Question, len(r.library))
	copy(out, r.library)
	return out
}

// UpdateLibrary replaces the library with fn's result and persists it. An
// error from fn leaves the library untouched.
func (r *Repository) UpdateLibrary(ctx context.Context, fn func([]quiz.Question) ([]quiz.Question, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := make([]quiz.Question, len(r.library))
	copy(cur, r.library)
	next, err := fn(cur)
	if err != nil {
		return err
	}
	r.library = next
	r.save(ctx, KeyLibrary, next)
	return nil
}

func (r *Repository) Branding() Branding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.branding
}

func (r *Repository) SaveBranding(ctx context.Context, b Branding) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.branding = b
	r.save(ctx, KeyBranding, b)
	return nil
}

// Ledger returns a snapshot copy.
func (r *Repository) Ledger() *notify.Ledger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return notify.NewLedger(r.ledger.Items())
}

// UpdateLedger runs fn against the live ledger and persists the result.
func (r *Repository) UpdateLedger(ctx context.Context, fn func(*notify.Ledger) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := notify.NewLedger(r.ledger.Items())
	if err := fn(work); err != nil {
		return err
	}
	r.ledger = work
	r.save(ctx, KeyNotifications, work.Items())
	return nil
}
