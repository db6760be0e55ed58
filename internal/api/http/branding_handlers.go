package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/state"
)

// GET /branding is public; the login screen shows it.
func GetBrandingHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.deps.Store.Branding())
	}
}

func SaveBrandingHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.Machine(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var b state.Branding
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, errBadJSON.Error(), http.StatusBadRequest)
			return
		}
		if err := m.SaveBranding(r.Context(), b); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m.Branding())
	}
}
