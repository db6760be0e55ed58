package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/app"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// withMachine resolves the caller's machine and runs fn against it. When fn
// succeeds the response is the machine's snapshot.
func withMachine(h *Hub, fn func(r *http.Request, m *app.Machine) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.Machine(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := fn(r, m); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m.Snapshot())
	}
}

// GET /app
func SnapshotHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(*http.Request, *app.Machine) error { return nil })
}

// PUT /app/settings
func UpdateSettingsHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(r *http.Request, m *app.Machine) error {
		var s quiz.Settings
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			return errBadJSON
		}
		return m.UpdateSettings(s)
	})
}

// POST /app/quiz blocks until the quiz is ready or generation fails.
func StartQuizHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(r *http.Request, m *app.Machine) error {
		return m.StartQuiz(r.Context())
	})
}

// POST /app/quiz/answer  { "question_id": "...", "option": 1 }
func AnswerHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(r *http.Request, m *app.Machine) error {
		var req struct {
			QuestionID string `json:"question_id"`
			Option     *int   `json:"option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuestionID == "" || req.Option == nil {
			return errBadJSON
		}
		return m.SelectOption(req.QuestionID, *req.Option)
	})
}

func NextHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(_ *http.Request, m *app.Machine) error { return m.Next() })
}

func PrevHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(_ *http.Request, m *app.Machine) error { return m.Prev() })
}

func CancelQuizHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(_ *http.Request, m *app.Machine) error { return m.Cancel() })
}

func RestartHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(_ *http.Request, m *app.Machine) error { return m.Restart() })
}

// POST /app/result/send
func SendResultHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(r *http.Request, m *app.Machine) error {
		_, err := m.SendToTeacher(r.Context())
		return err
	})
}

// POST /app/screen/{name}, e.g. teacher_library; "back" returns Home.
func ScreenHandler(h *Hub) http.HandlerFunc {
	return withMachine(h, func(r *http.Request, m *app.Machine) error {
		name := strings.ToUpper(chi.URLParam(r, "name"))
		if name == "BACK" {
			return m.Back()
		}
		return m.Open(app.Screen(name))
	})
}

// POST /app/logout; the presented token stops working.
func LogoutHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.Logout(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, m.Snapshot())
	}
}
