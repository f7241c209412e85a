package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(apiHandler *APIHandler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true, // Session cookie rides along
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", apiHandler.LoginHandler)
		r.Post("/login/password", apiHandler.PasswordLoginHandler)
		r.Post("/register", apiHandler.RegisterHandler)
		r.Post("/logout", apiHandler.LogoutHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Session-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.SessionAuthMiddleware)

			r.Post("/ask", apiHandler.AskHandler)
			r.Post("/feedback", apiHandler.FeedbackHandler)

			// Admin surface for the dashboard
			r.Group(func(r chi.Router) {
				r.Use(apiHandler.AdminOnlyMiddleware)
				r.Get("/admin/users", apiHandler.ListUsersHandler)
				r.Get("/admin/feedback", apiHandler.ListFeedbackHandler)
			})
		})
	})

	return r
}
