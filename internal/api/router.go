package api

import (
	"net/http"
	"time"

	"mindfulchat-backend/internal/config"
	"mindfulchat-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler      *handlers.AuthHandler
	ChatHandler      *handlers.ChatHandlers
	GuestHandler     *handlers.GuestHandlers
	FeedbackHandler  *handlers.FeedbackHandlers
	MetricsHandler   http.Handler
	GuestRateLimiter *IPRateLimiter
	Config           *config.Config
}

// RequestTimeout bounds a whole request. It stays above the completion
// backend timeout so a slow backend surfaces as 503 from the turn processor.
func RequestTimeout(cfg *config.Config) time.Duration {
	if cfg == nil || cfg.BackendTimeout <= 0 {
		return 60 * time.Second
	}
	return cfg.BackendTimeout + 10*time.Second
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)                            // Inject request ID into context
	r.Use(middleware.RealIP)                               // Use X-Forwarded-For or X-Real-IP
	r.Use(middleware.Logger)                               // Log requests
	r.Use(middleware.Recoverer)                            // Recover from panics, return 500
	r.Use(middleware.Timeout(RequestTimeout(deps.Config))) // Set a request timeout

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if deps.AuthHandler == nil {
				panic("AuthHandler dependency is nil in router setup")
			}
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Post("/verify-otp", deps.AuthHandler.HandleVerifyOTP)
			r.Post("/login", deps.AuthHandler.HandleLogin)

			r.Group(func(r chi.Router) {
				r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))
				r.Post("/logout", deps.AuthHandler.HandleLogout)
				r.Get("/me", deps.AuthHandler.HandleMe)
			})
		})

		r.Route("/guest", func(r chi.Router) {
			if deps.GuestHandler == nil {
				panic("GuestHandler dependency is nil in router setup")
			}
			if deps.GuestRateLimiter != nil {
				r.Use(deps.GuestRateLimiter.Middleware)
			}
			r.Post("/start", deps.GuestHandler.HandleStart)
			r.Post("/chat", deps.GuestHandler.HandleChat)
			r.Post("/feedback", deps.GuestHandler.HandleFeedback)
			r.Get("/feedback/status", deps.GuestHandler.HandleFeedbackStatus)
		})

		// --- Authenticated Routes (JWT Required) ---
		r.Group(func(r chi.Router) {
			r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

			if deps.ChatHandler == nil {
				panic("ChatHandler dependency is nil in router setup")
			}
			r.Post("/chat", deps.ChatHandler.HandleChat)
			r.Get("/chat/history", deps.ChatHandler.HandleHistory)

			if deps.FeedbackHandler == nil {
				panic("FeedbackHandler dependency is nil in router setup")
			}
			r.Post("/feedback", deps.FeedbackHandler.HandleSubmit)
			r.Get("/feedback", deps.FeedbackHandler.HandleStatus)
		})
	})

	return r
}
