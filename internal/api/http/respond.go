package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/app"
	"github.com/mind-engage/mindengage-quiz/internal/auth"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/state"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, app.ErrNotLoggedIn), errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, app.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, app.ErrInvalidTransition),
		errors.Is(err, app.ErrStaleGeneration),
		errors.Is(err, app.ErrNoTeacher),
		errors.Is(err, app.ErrAlreadySent),
		errors.Is(err, session.ErrUnanswered),
		errors.Is(err, session.ErrAtFirst),
		errors.Is(err, session.ErrComplete),
		errors.Is(err, session.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, errBadJSON),
		errors.Is(err, quiz.ErrInvalidQuestion),
		errors.Is(err, quiz.ErrInvalidSettings),
		errors.Is(err, quiz.ErrNoMatchingQuestions),
		errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, session.ErrInvalidOption),
		errors.Is(err, state.ErrInvalidBranding):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("api: %v", err)
	}
	http.Error(w, err.Error(), status)
}
