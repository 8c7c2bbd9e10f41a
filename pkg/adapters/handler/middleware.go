package handler

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wadjakorntonsri/triptree/pkg/adapters/ratelimit"
	"github.com/wadjakorntonsri/triptree/pkg/auth"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
)

type Middleware struct {
	jwtSecret  []byte
	limiter    *ratelimit.Limiter
	trustProxy bool
	log        logging.Logger
}

func NewMiddleware(jwtSecret string, limiter *ratelimit.Limiter, trustProxy bool, log logging.Logger) *Middleware {
	return &Middleware{
		jwtSecret:  []byte(jwtSecret),
		limiter:    limiter,
		trustProxy: trustProxy,
		log:        log,
	}
}

// RequireSession verifies the session cookie and stores the caller in the
// request context. The wrapped handler never runs for anonymous callers.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			writeError(w, r, m.log, domain.ErrUnauthorized, "")
			return
		}

		session, err := auth.Verify(cookie.Value, m.jwtSecret)
		if err != nil {
			m.log.Debug(r.Context(), "session rejected", "error", err)
			writeError(w, r, m.log, domain.ErrUnauthorized, "")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

// RateLimit applies the fixed-window limiter per caller address and
// advertises the standard RateLimit-* headers.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := m.limiter.Allow(r.Context(), m.clientIP(r))
		if err != nil {
			// Counter store errors fail open.
			m.log.Warn(r.Context(), "rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		reset := int(time.Until(res.ResetAt).Round(time.Second).Seconds())
		if reset < 0 {
			reset = 0
		}
		w.Header().Set("RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("RateLimit-Reset", strconv.Itoa(reset))

		if !res.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(reset))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) clientIP(r *http.Request) string {
	if m.trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wrote {
		return
	}
	s.status, s.wrote = code, true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wrote = true
	return s.ResponseWriter.Write(b)
}

// Logging records method, path, status and duration of every request.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				m.log.Error(r.Context(), "panic serving request", "path", r.URL.Path, "panic", p)
				// the response is already committed once headers went out
				if !rec.wrote {
					writeJSON(rec, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
				}
			}
			m.log.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(rec, r)
	})
}
