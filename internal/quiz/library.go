package quiz

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Shuffler is satisfied by *rand.Rand from math/rand and math/rand/v2.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Filter returns the library questions matching grade, subject and, when set,
// a case-insensitive topic substring. Library order is preserved.
func Filter(library []Question, s Settings) []Question {
	topic := strings.ToLower(strings.TrimSpace(s.Topic))
	out := make([]Question, 0, len(library))
	for _, q := range library {
		if q.Grade != s.Grade || q.Subject != s.Subject {
			continue
		}
		if topic != "" && !strings.Contains(strings.ToLower(q.Topic), topic) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Sample draws up to n distinct questions by shuffling a copy and slicing it.
// Asking for more than available returns all of them.
func Sample(qs []Question, n int, rng Shuffler) []Question {
	cp := make([]Question, len(qs))
	copy(cp, qs)
	rng.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	if n >= 0 && n < len(cp) {
		cp = cp[:n]
	}
	return cp
}

// Select filters the library for s and samples s.NumQuestions from the match.
func Select(library []Question, s Settings, rng Shuffler) ([]Question, error) {
	matched := Filter(library, s)
	if len(matched) == 0 {
		return nil, ErrNoMatchingQuestions
	}
	return Sample(matched, s.NumQuestions, rng), nil
}

// Draft is the teacher authoring form.
type Draft struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Grade        int      `json:"grade"`
	Topic        string   `json:"topic"`
	Subject      string   `json:"subject"`
	Diagram      string   `json:"diagram,omitempty"`
}

// NewCustomQuestion turns a draft into a library question with a fresh id.
func NewCustomQuestion(d Draft) (Question, error) {
	q := Question{
		ID:           uuid.NewString(),
		Text:         strings.TrimSpace(d.Text),
		Options:      d.Options,
		CorrectIndex: d.CorrectIndex,
		Explanation:  strings.TrimSpace(d.Explanation),
		Topic:        strings.TrimSpace(d.Topic),
		Subject:      d.Subject,
		Grade:        d.Grade,
		Diagram:      d.Diagram,
		IsCustom:     true,
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return Question{}, fmt.Errorf("%w: option %d is empty", ErrInvalidQuestion, i)
		}
	}
	if q.Subject == "" || q.Grade == 0 {
		return Question{}, fmt.Errorf("%w: subject and grade required", ErrInvalidQuestion)
	}
	if q.HasDiagram() && !WellFormedDiagram(q.Diagram) {
		return Question{}, fmt.Errorf("%w: diagram is not well-formed markup", ErrInvalidQuestion)
	}
	return q, nil
}

// Prepend returns a new library with q first.
func Prepend(library []Question, q Question) []Question {
	out := make([]Question, 0, len(library)+1)
	out = append(out, q)
	return append(out, library...)
}

// Remove returns a new library without the question id. The bool reports
// whether anything was removed.
func Remove(library []Question, id string) ([]Question, bool) {
	out := make([]Question, 0, len(library))
	removed := false
	for _, q := range library {
		if q.ID == id {
			removed = true
			continue
		}
		out = append(out, q)
	}
	return out, removed
}
