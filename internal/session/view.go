package session

import "github.com/mind-engage/mindengage-quiz/internal/quiz"

// QuestionView is a question as shown during the quiz, without the key.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Topic   string   `json:"topic"`
	Diagram string   `json:"diagram,omitempty"`
}

type View struct {
	State      State        `json:"state"`
	Position   int          `json:"position"`
	Total      int          `json:"total"`
	Progress   float64      `json:"progress"`
	Question   QuestionView `json:"question"`
	Selected   *int         `json:"selected,omitempty"`
	CanAdvance bool         `json:"can_advance"`
	CanRetreat bool         `json:"can_retreat"`
	IsLast     bool         `json:"is_last"`
}

func viewOf(q quiz.Question) QuestionView {
	return QuestionView{ID: q.ID, Text: q.Text, Options: q.Options, Topic: q.DisplayTopic(), Diagram: q.Diagram}
}

func (s *Session) View() View {
	cur := s.Current()
	v := View{
		State:      s.state,
		Position:   s.pos,
		Total:      len(s.questions),
		Progress:   s.Progress(),
		Question:   viewOf(cur),
		CanAdvance: s.CanAdvance(),
		CanRetreat: s.CanRetreat(),
		IsLast:     s.IsLast(),
	}
	if sel, ok := s.answers[cur.ID]; ok {
		v.Selected = &sel
	}
	return v
}
