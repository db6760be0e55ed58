package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// GET /catalog
func CatalogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, quiz.DefaultCatalog())
	}
}
