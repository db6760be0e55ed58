package quiz

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrInvalidQuestion     = errors.New("invalid question")
	ErrInvalidSettings     = errors.New("invalid quiz settings")
	ErrNoMatchingQuestions = errors.New("no matching questions in library")
)

// Question is one multiple-choice item. Generated questions live only for the
// session; library questions are persisted by the state repository.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Topic        string   `json:"topic,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	Grade        int      `json:"grade,omitempty"`
	Diagram      string   `json:"diagram,omitempty"` // SVG fragment, empty when none
	IsCustom     bool     `json:"is_custom,omitempty"`
}

func (q Question) HasDiagram() bool { return strings.TrimSpace(q.Diagram) != "" }

// DisplayTopic is the topic shown next to the question.
func (q Question) DisplayTopic() string {
	if t := strings.TrimSpace(q.Topic); t != "" {
		return t
	}
	return GeneralTopic
}

// Validate enforces the shape every question must have before it may enter a
// session or the library.
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: %s: empty text", ErrInvalidQuestion, q.ID)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: %s: need at least 2 options, got %d", ErrInvalidQuestion, q.ID, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: %s: correct index %d out of range [0,%d)", ErrInvalidQuestion, q.ID, q.CorrectIndex, len(q.Options))
	}
	return nil
}

// ValidateAll checks a question list for a session: non-empty, every item
// valid and ids unique.
func ValidateAll(qs []Question) error {
	if len(qs) == 0 {
		return fmt.Errorf("%w: empty question list", ErrInvalidQuestion)
	}
	seen := make(map[string]struct{}, len(qs))
	for _, q := range qs {
		if err := q.Validate(); err != nil {
			return err
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidQuestion, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// WellFormedDiagram reports whether s parses as well-formed XML markup.
func WellFormedDiagram(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	dec := xml.NewDecoder(strings.NewReader(s))
	dec.Strict = true
	depth, elems := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return false
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
			elems++
		case xml.EndElement:
			depth--
		}
	}
	return depth == 0 && elems > 0
}

type UserAnswer struct {
	QuestionID    string `json:"question_id"`
	SelectedIndex int    `json:"selected_index"`
}

type Source string

const (
	SourceAI      Source = "AI"
	SourceLibrary Source = "LIBRARY"
)

// Difficulty is the Bloom level requested from the generator.
type Difficulty int

const (
	DifficultyKnowledge Difficulty = iota + 1
	DifficultyComprehension
	DifficultyApplication
	DifficultyAnalysis
)

func (d Difficulty) Valid() bool { return d >= DifficultyKnowledge && d <= DifficultyAnalysis }

func (d Difficulty) Label() string {
	switch d {
	case DifficultyKnowledge:
		return "Nhận biết"
	case DifficultyComprehension:
		return "Thông hiểu"
	case DifficultyApplication:
		return "Vận dụng"
	case DifficultyAnalysis:
		return "Vận dụng cao"
	}
	return "Thông thường"
}

// Description is the long form used in generation prompts.
func (d Difficulty) Description() string {
	switch d {
	case DifficultyKnowledge:
		return "Nhận biết (Câu hỏi cơ bản, yêu cầu nhớ và nhận ra kiến thức)"
	case DifficultyComprehension:
		return "Thông hiểu (Câu hỏi yêu cầu hiểu bản chất, giải thích được vấn đề)"
	case DifficultyApplication:
		return "Vận dụng (Câu hỏi yêu cầu áp dụng kiến thức để giải quyết tình huống cụ thể)"
	case DifficultyAnalysis:
		return "Vận dụng cao (Câu hỏi phức tạp, yêu cầu tư duy logic, tổng hợp và phân tích sâu)"
	}
	return "Thông thường"
}

// Settings is copied into a new session when a quiz starts.
type Settings struct {
	Grade        int        `json:"grade"`
	Subject      string     `json:"subject"`
	Topic        string     `json:"topic"` // empty means any
	NumQuestions int        `json:"num_questions"`
	Source       Source     `json:"source"`
	Difficulty   Difficulty `json:"difficulty"`
}

func DefaultSettings() Settings {
	return Settings{
		Grade:        6,
		Subject:      Subjects[0],
		NumQuestions: 5,
		Source:       SourceAI,
		Difficulty:   DifficultyKnowledge,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.Grade < 1 || s.Grade > 12:
		return fmt.Errorf("%w: grade %d", ErrInvalidSettings, s.Grade)
	case strings.TrimSpace(s.Subject) == "":
		return fmt.Errorf("%w: empty subject", ErrInvalidSettings)
	case s.NumQuestions <= 0:
		return fmt.Errorf("%w: question count %d", ErrInvalidSettings, s.NumQuestions)
	case s.Source != SourceAI && s.Source != SourceLibrary:
		return fmt.Errorf("%w: source %q", ErrInvalidSettings, s.Source)
	case !s.Difficulty.Valid():
		return fmt.Errorf("%w: difficulty %d", ErrInvalidSettings, s.Difficulty)
	}
	return nil
}

// DisplayTopic is the topic recorded on results; an empty topic means the
// quiz covered general knowledge.
func (s Settings) DisplayTopic() string {
	if t := strings.TrimSpace(s.Topic); t != "" {
		return t
	}
	return GeneralTopic
}
