package handlers

import (
	"net/http"

	"modelhub-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Routes groups the handlers mounted by Mount
type Routes struct {
	Auth      *AuthHandler
	Profiles  *ProfileHandler
	Models    *ModelHandler
	Sessions  *SessionHandler
	Validator middleware.TokenValidator
	// LoginLimiter throttles sign in attempts per client IP when set
	LoginLimiter *middleware.RateLimiter
}

// Mount registers the API and websocket routes on r
func Mount(r chi.Router, routes Routes) {
	limitLogin := func(next http.Handler) http.Handler { return next }
	if routes.LoginLimiter != nil {
		limitLogin = routes.LoginLimiter.Middleware
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", routes.Auth.Signup)
		r.With(limitLogin).Post("/auth/login", routes.Auth.Login)
		r.Get("/auth/me", routes.Auth.Me)
		r.Post("/auth/logout", routes.Auth.Logout)
		r.Post("/auth/refresh", routes.Auth.Refresh)

		r.Get("/profiles/{id}", routes.Profiles.GetProfile)
		r.Get("/profiles/by-username/{username}", routes.Profiles.GetProfileByUsername)

		r.Get("/models", routes.Models.ListModels)
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(routes.Validator))
			r.Get("/models/{id}", routes.Models.GetModel)
			r.Get("/models/{id}/related", routes.Models.GetRelatedModels)
			r.Get("/users/{id}/models", routes.Models.GetUserModels)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(routes.Validator))
			r.Post("/profiles/me", routes.Auth.CreateProfile)
			r.Put("/profiles/me/push-token", routes.Profiles.UpdatePushToken)
			r.Post("/models", routes.Models.UploadModel)
			r.Post("/models/{id}/downloads", routes.Models.RecordDownload)
			r.Get("/dashboard", routes.Models.Dashboard)
		})
	})

	// WebSocket route
	r.Get("/ws", routes.Sessions.HandleWebSocket)
}
