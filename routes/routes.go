package routes

import (
	"github.com/campusfest/techfest-system/handlers"
	"github.com/campusfest/techfest-system/middleware"
	"github.com/campusfest/techfest-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes wires the full HTTP surface onto the router.
func SetupRoutes(
	router *chi.Mux,
	authHandler *handlers.AuthHandler,
	eventHandler *handlers.EventHandler,
	registrationHandler *handlers.RegistrationHandler,
	statsHandler *handlers.StatsHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	auth := middleware.NewAuthenticator(jwtSecret)

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Handle("/metrics", promhttp.Handler())

	router.Post("/auth/signup", authHandler.Signup)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/events", func(r chi.Router) {
		// Public listing and detail. Anonymous viewers are allowed; a token,
		// when present, shapes visibility (semester control, own drafts).
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuthenticate)
			r.Get("/", eventHandler.List)
			r.Get("/{eventID}", eventHandler.Get)
		})

		// Authenticated operations. Only creation is role-gated up front: the
		// per-event management routes resolve access in the service layer so
		// that student coordinators keep their rights.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.With(middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin)).
				Post("/", eventHandler.Create)
			r.Put("/{eventID}", eventHandler.Update)
			r.Delete("/{eventID}", eventHandler.Delete)
			r.Patch("/{eventID}/publish", eventHandler.TogglePublish)
			r.Post("/{eventID}/coordinators", eventHandler.AddCoordinator)
			r.Post("/{eventID}/poster", eventHandler.UploadPoster)
			r.Get("/{eventID}/registrations", registrationHandler.ListByEvent)
			r.Post("/{eventID}/registrations/manual", registrationHandler.RegisterManual)
			r.Post("/{eventID}/registrations", registrationHandler.RegisterSelf)
		})
	})

	router.Route("/registrations", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/my", registrationHandler.MyRegistrations)
		r.Delete("/{registrationID}", registrationHandler.Cancel)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireRoles(models.RoleAdmin))
		r.Get("/stats", statsHandler.Dashboard)
	})

	router.Get("/ws/events/{eventID}", webSocketHandler.ServeEventFeed)
}
