package quiz

import "strings"

const GeneralTopic = "Kiến thức tổng hợp"

const (
	SubjectMath       = "Toán học"
	SubjectLiterature = "Ngữ văn"
	SubjectEnglish    = "Tiếng Anh"
	SubjectPhysics    = "Vật lý"
	SubjectChemistry  = "Hóa học"
	SubjectBiology    = "Sinh học"
	SubjectHistory    = "Lịch sử"
	SubjectGeography  = "Địa lý"
)

var (
	Subjects       = []string{SubjectMath, SubjectLiterature, SubjectEnglish, SubjectPhysics, SubjectChemistry, SubjectBiology, SubjectHistory, SubjectGeography}
	Grades         = []int{6, 7, 8, 9}
	QuestionCounts = []int{5, 10, 15, 20}
)

// IsMath covers both the Vietnamese and English-medium maths subjects.
func IsMath(subject string) bool {
	return subject == SubjectMath || subject == "Toán bằng tiếng Anh"
}

// IsEnglishMedium is true for subjects taught in English (e.g. "Toán bằng
// tiếng Anh"), but not for the English language subject itself.
func IsEnglishMedium(subject string) bool {
	return strings.Contains(strings.ToLower(subject), "tiếng anh") && subject != SubjectEnglish
}

// DifficultyOption is one selectable difficulty level.
type DifficultyOption struct {
	Level Difficulty `json:"level"`
	Label string     `json:"label"`
}

// Catalog lists the choices offered when configuring a quiz or authoring a
// library question.
type Catalog struct {
	Subjects       []string           `json:"subjects"`
	Grades         []int              `json:"grades"`
	QuestionCounts []int              `json:"question_counts"`
	Difficulties   []DifficultyOption `json:"difficulties"`
	Sources        []Source           `json:"sources"`
}

func DefaultCatalog() Catalog {
	c := Catalog{
		Subjects:       append([]string(nil), Subjects...),
		Grades:         append([]int(nil), Grades...),
		QuestionCounts: append([]int(nil), QuestionCounts...),
		Sources:        []Source{SourceAI, SourceLibrary},
	}
	for d := DifficultyKnowledge; d <= DifficultyAnalysis; d++ {
		c.Difficulties = append(c.Difficulties, DifficultyOption{Level: d, Label: d.Label()})
	}
	return c
}
