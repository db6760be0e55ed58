package genai

import (
	"fmt"
	"strings"

	gemini "google.golang.org/genai"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const unicodeMathGuide = `Dùng ký tự Unicode thay cho LaTeX:
- Số mũ: x², x³, xⁿ; chỉ số dưới: x₁, x₂
- Căn: √x, ∛x
- Hình học: ∠ABC, △ABC, ⊥, ║, ≈
- Phép toán: ×, ÷, ±, ≤, ≥, ≠, ∞
- Ký hiệu: π, ∆, ∈, ∉, ⊂, ∪, ∩
- Phân số viết a/b hoặc (tử)/(mẫu)`

const diagramGuide = `Hình vẽ (SVG):
- Câu hình học BẮT BUỘC có mã SVG hợp lệ trong trường "diagram", viewBox="0 0 200 150", nét #1e40af, ghi tên đỉnh bằng thẻ <text>.
- Hình phải khớp dữ liệu của câu hỏi.
- Để trống "diagram" nếu không cần minh họa.`

func topicContext(s quiz.Settings) string {
	if t := strings.TrimSpace(s.Topic); t != "" {
		return fmt.Sprintf("về chủ đề cụ thể: %q", t)
	}
	if quiz.IsMath(s.Subject) {
		return "gồm tổ hợp ngẫu nhiên, đa dạng các mảng Số học/Đại số, Hình học, Thống kê, Xác suất; không tập trung vào một mảng; Hình học chiếm ít nhất 30% số câu"
	}
	return "tự chọn một chủ đề cốt lõi, phù hợp nhất trong chương trình học hiện tại"
}

func languageInstruction(subject string) string {
	if quiz.IsEnglishMedium(subject) {
		return "Toàn bộ câu hỏi, lựa chọn và lời giải viết bằng tiếng Anh (English)."
	}
	return "Biên soạn bằng tiếng Việt chuẩn giáo dục."
}

// BuildPrompt renders the generation request for s.
func BuildPrompt(s quiz.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bạn là giáo viên %s THCS giàu kinh nghiệm. Hãy tạo bộ câu hỏi trắc nghiệm cho học sinh lớp %d %s.\n\n", s.Subject, s.Grade, topicContext(s))
	b.WriteString("Yêu cầu:\n")
	fmt.Fprintf(&b, "1. Số lượng: %d câu hỏi.\n", s.NumQuestions)
	b.WriteString("2. Mỗi câu có đúng 4 lựa chọn (A, B, C, D); correctAnswerIndex là chỉ số 0-3 của đáp án đúng.\n")
	b.WriteString("3. Nội dung bám sát chương trình GDPT 2018.\n")
	fmt.Fprintf(&b, "4. %s\n", languageInstruction(s.Subject))
	fmt.Fprintf(&b, "5. Mức độ: %s.\n", s.Difficulty.Description())
	fmt.Fprintf(&b, "6. Không dùng LaTeX. %s\n", unicodeMathGuide)
	fmt.Fprintf(&b, "7. %s\n", diagramGuide)
	b.WriteString("8. Lời giải chi tiết từng bước trong trường \"explanation\".\n")
	b.WriteString("9. Ghi mảng kiến thức (Hình học, Đại số, ...) vào trường \"topic\".\n")
	return b.String()
}

// responseSchema constrains the model output to an array of questions.
func responseSchema() *gemini.Schema {
	str := &gemini.Schema{Type: gemini.TypeString}
	return &gemini.Schema{
		Type: gemini.TypeArray,
		Items: &gemini.Schema{
			Type: gemini.TypeObject,
			Properties: map[string]*gemini.Schema{
				"id":                 str,
				"text":               str,
				"topic":              {Type: gemini.TypeString, Description: "Mảng kiến thức"},
				"options":            {Type: gemini.TypeArray, Items: str},
				"correctAnswerIndex": {Type: gemini.TypeInteger},
				"explanation":        str,
				"diagram":            {Type: gemini.TypeString, Description: "Mã SVG minh họa"},
			},
			Required: []string{"id", "text", "options", "correctAnswerIndex", "explanation", "topic"},
		},
	}
}
