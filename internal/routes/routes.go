package routes

import (
	"github.com/apvaldes/healthcenter/internal/auth"
	"github.com/apvaldes/healthcenter/internal/handlers"
	"github.com/apvaldes/healthcenter/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Handlers bundles the HTTP handlers registered by the router.
type Handlers struct {
	Auth      *handlers.AuthHandler
	About     *handlers.AboutHandler
	Home      *handlers.HomeHandler
	Content   *handlers.ContentHandler
	Portfolio *handlers.PortfolioHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	sessions auth.SessionStore,
	users auth.UserStore,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public auth endpoints, rate limited per IP
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", h.Auth.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", h.Auth.Register)

	// Public content reads. The optional session lets staff see drafts.
	router.Group(func(r chi.Router) {
		r.Use(auth.OptionalSessionMiddleware(sessions, users))

		r.Get("/about", h.About.List)
		r.Get("/about/{id}", h.About.Get)
		r.Get("/home", h.Home.List)
		r.Get("/content", h.Content.List)
		r.Get("/content/{id}", h.Content.Get)
		r.Get("/portfolio", h.Portfolio.List)
		r.Get("/portfolio/categories", h.Portfolio.ListCategories)
		r.Get("/portfolio/{id}", h.Portfolio.Get)
	})

	// Authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(auth.SessionMiddleware(sessions, users))

		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/auth/change-password", h.Auth.ChangePassword)
		r.Get("/auth/profile", h.Auth.GetProfile)
		r.Put("/auth/profile", h.Auth.UpdateProfile)
		r.Post("/auth/sessions/{id}/terminate", h.Auth.TerminateSession)
		r.Post("/auth/two-factor/setup", h.Auth.SetupTwoFactor)
		r.Post("/auth/two-factor/enable", h.Auth.EnableTwoFactor)
		r.Post("/auth/two-factor/disable", h.Auth.DisableTwoFactor)

		// Staff-only content writes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireManager)

			r.Post("/about", h.About.Create)
			r.Put("/about/{id}", h.About.Update)
			r.Delete("/about/{id}", h.About.Delete)

			r.Post("/home", h.Home.Create)
			r.Put("/home/{id}", h.Home.Update)
			r.Delete("/home/{id}", h.Home.Delete)

			r.Post("/content", h.Content.Create)
			r.Put("/content/{id}", h.Content.Update)
			r.Delete("/content/{id}", h.Content.Delete)

			r.Post("/portfolio", h.Portfolio.Create)
			r.Put("/portfolio/{id}", h.Portfolio.Update)
			r.Delete("/portfolio/{id}", h.Portfolio.Delete)
			r.Post("/portfolio/categories", h.Portfolio.CreateCategory)
			r.Delete("/portfolio/categories/{id}", h.Portfolio.DeleteCategory)
		})
	})
}
