// Package grading scores a finished quiz and builds the per-question review.
// Everything here is pure: the same questions and answers always produce the
// same Result.
package grading

import (
	"math"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Item is the review line for one question.
type Item struct {
	Question quiz.Question `json:"question"`
	Selected *int          `json:"selected,omitempty"` // nil when unanswered
	Correct  bool          `json:"correct"`
}

type Result struct {
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Items      []Item `json:"items"`
}

// Evaluate compares answers to the answer keys by question id. Unanswered
// questions count as incorrect. Callers must not evaluate an empty quiz; the
// percentage is reported as 0 in that case.
func Evaluate(questions []quiz.Question, answers []quiz.UserAnswer) Result {
	byID := make(map[string]int, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a.SelectedIndex
	}

	res := Result{Total: len(questions), Items: make([]Item, 0, len(questions))}
	for _, q := range questions {
		it := Item{Question: q}
		if sel, ok := byID[q.ID]; ok {
			sel := sel
			it.Selected = &sel
			it.Correct = sel == q.CorrectIndex
		}
		if it.Correct {
			res.Score++
		}
		res.Items = append(res.Items, it)
	}
	res.Percentage = Percentage(res.Score, res.Total)
	return res
}

// Percentage is round(100*score/total), or 0 for an empty quiz.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
