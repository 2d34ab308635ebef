package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maroltinger/votebox/internal/core/ports"
)

func NewHandler(authHandler *AuthHandler, voteHandler *VoteHandler, liveHandler *LiveHandler, authService ports.AuthService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/verify", authHandler.Verify)
			r.Post("/resend", authHandler.ResendVerification)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(authService))
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(authService))

			r.Get("/items", voteHandler.ListItems)
			r.Post("/items/{id}/votes", voteHandler.CastVote)
			r.Get("/live", liveHandler.Stream)
		})
	})

	return r
}
