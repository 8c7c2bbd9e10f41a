package handler

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/wadjakorntonsri/triptree/pkg/adapters/ratelimit"
	"github.com/wadjakorntonsri/triptree/pkg/config"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
)

// Services bundles what the router dispatches to. Uploads may be nil.
type Services struct {
	Auth     ports.AuthService
	Profiles ports.ProfileService
	Links    ports.LinkService
	Places   ports.PlaceService
	Uploads  ports.UploadService
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, svc Services, limiter *ratelimit.Limiter, log logging.Logger) http.Handler {
	// Initialize Handlers
	ah := NewAuthHandler(cfg, svc.Auth, log)
	ph := NewProfileHandler(svc.Profiles, svc.Uploads, log)
	lh := NewLinkHandler(svc.Links, log)
	plh := NewPlaceHandler(svc.Places, log)

	mw := NewMiddleware(cfg.JWTSecret, limiter, cfg.TrustProxy, log)
	limited := func(f http.HandlerFunc) http.Handler { return mw.RateLimit(f) }
	session := func(f http.HandlerFunc) http.Handler { return mw.RequireSession(f) }

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /health", health)
	mux.HandleFunc("GET /public/{username}", ph.Public)

	// Auth Routes (rate limited per caller address)
	mux.Handle("POST /auth/signup", limited(ah.Signup))
	mux.Handle("POST /auth/login", limited(ah.Login))
	mux.Handle("POST /auth/logout", limited(ah.Logout))
	if cfg.GoogleEnabled() {
		mux.Handle("GET /auth/google/login", limited(ah.GoogleLogin))
		mux.Handle("GET /auth/google/callback", limited(ah.GoogleCallback))
	}

	// Protected Routes
	mux.Handle("GET /me", session(ph.Me))
	mux.Handle("PUT /me", session(ph.UpdateMe))
	if svc.Uploads != nil {
		mux.Handle("POST /me/uploads", session(ph.Upload))
	}

	mux.Handle("GET /links", session(lh.List))
	mux.Handle("POST /links", session(lh.Create))
	mux.Handle("PUT /links/{id}", session(lh.Update))
	mux.Handle("DELETE /links/{id}", session(lh.Delete))

	mux.Handle("GET /places", session(plh.List))
	mux.Handle("POST /places", session(plh.Create))
	mux.Handle("PUT /places/{id}", session(plh.Update))
	mux.Handle("DELETE /places/{id}", session(plh.Delete))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: true,
	})

	return mw.Logging(c.Handler(mux))
}
