package http

import (
	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// Mount registers the login endpoint and the authenticated API on r.
func Mount(r chi.Router, h *Hub, authSvc *authmw.AuthService, dir authmw.Authenticator) {
	r.Post("/auth/login", authmw.LoginHandler(authSvc, dir, h.Login))
	r.Get("/branding", GetBrandingHandler(h))

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		pr.Route("/app", func(ar chi.Router) {
			ar.Get("/", SnapshotHandler(h))
			ar.Put("/settings", UpdateSettingsHandler(h))
			ar.Post("/screen/{name}", ScreenHandler(h))
			ar.Post("/logout", LogoutHandler(h))

			ar.Group(func(qr chi.Router) {
				qr.Use(rbac.Require(rbac.PermQuizTake))
				qr.Post("/quiz", StartQuizHandler(h))
				qr.Post("/quiz/answer", AnswerHandler(h))
				qr.Post("/quiz/next", NextHandler(h))
				qr.Post("/quiz/prev", PrevHandler(h))
				qr.Post("/quiz/cancel", CancelQuizHandler(h))
				qr.Post("/result/restart", RestartHandler(h))
			})
			ar.With(rbac.Require(rbac.PermResultSend)).
				Post("/result/send", SendResultHandler(h))
		})

		pr.Route("/library", func(lr chi.Router) {
			lr.Use(rbac.Require(rbac.PermLibraryManage))
			lr.Get("/", ListLibraryHandler(h))
			lr.Post("/", AddQuestionHandler(h))
			lr.Delete("/{id}", DeleteQuestionHandler(h))
		})

		pr.Route("/notifications", func(nr chi.Router) {
			nr.Use(rbac.Require(rbac.PermNotificationsView))
			nr.Get("/", ListNotificationsHandler(h))
			nr.Post("/{id}/read", MarkReadHandler(h))
			nr.Delete("/", ClearNotificationsHandler(h))
		})

		pr.With(rbac.RequireAny(rbac.PermQuizTake, rbac.PermLibraryManage)).
			Get("/catalog", CatalogHandler())

		pr.With(rbac.Require(rbac.PermSettingsManage)).
			Put("/branding", SaveBrandingHandler(h))
	})
}
