// Package notify keeps the ledger of quiz results students send to their
// teacher.
package notify

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID          string `json:"id"`
	StudentName string `json:"student_name"`
	StudentID   string `json:"student_id"`
	TeacherID   string `json:"teacher_id"`
	Subject     string `json:"subject"`
	Topic       string `json:"topic"`
	Score       int    `json:"score"`
	Total       int    `json:"total"`
	Timestamp   int64  `json:"timestamp"` // unix millis
	Read        bool   `json:"read"`
}

// New stamps a fresh unread notification.
func New(studentName, studentID, teacherID, subject, topic string, score, total int, at time.Time) Notification {
	return Notification{
		ID:          uuid.NewString(),
		StudentName: studentName,
		StudentID:   studentID,
		TeacherID:   teacherID,
		Subject:     subject,
		Topic:       topic,
		Score:       score,
		Total:       total,
		Timestamp:   at.UnixMilli(),
	}
}

// Viewer is who is looking at the ledger. Admins see and clear everything;
// everyone else sees entries addressed to their identity.
type Viewer struct {
	Identity string
	Admin    bool
}

func (v Viewer) sees(n Notification) bool { return v.Admin || n.TeacherID == v.Identity }

// Ledger is append-only apart from the read flag and scoped clearing. The
// zero value is an empty ledger.
type Ledger struct {
	items []Notification
}

func NewLedger(items []Notification) *Ledger {
	cp := make([]Notification, len(items))
	copy(cp, items)
	return &Ledger{items: cp}
}

// Items returns the stored entries, newest appended first.
func (l *Ledger) Items() []Notification {
	out := make([]Notification, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) Len() int { return len(l.items) }

func (l *Ledger) Append(n Notification) {
	l.items = append([]Notification{n}, l.items...)
}

// MarkRead flips the read flag of exactly one entry. It reports whether the
// id was found.
func (l *Ledger) MarkRead(id string) bool {
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Read = true
			return true
		}
	}
	return false
}

// Clear removes the entries in v's scope and returns how many went.
func (l *Ledger) Clear(v Viewer) int {
	if v.Admin {
		n := len(l.items)
		l.items = nil
		return n
	}
	kept := l.items[:0:0]
	for _, n := range l.items {
		if n.TeacherID != v.Identity {
			kept = append(kept, n)
		}
	}
	removed := len(l.items) - len(kept)
	l.items = kept
	return removed
}

// Visible lists v's entries, newest timestamp first.
func (l *Ledger) Visible(v Viewer) []Notification {
	out := make([]Notification, 0, len(l.items))
	for _, n := range l.items {
		if v.sees(n) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

func (l *Ledger) Unread(v Viewer) int {
	c := 0
	for _, n := range l.items {
		if v.sees(n) && !n.Read {
			c++
		}
	}
	return c
}
