package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/project"
)

// Limiter decides whether a caller may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) bool
	Window() time.Duration
}

// RequestMeta stores the caller's address, user agent and request id for audit entries.
// It must run after chi's RequestID and RealIP middleware.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequestMeta(r.Context(), domain.RequestMeta{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
			RequestID: middleware.GetReqID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects callers that are not administrators
func RequireAdmin(next http.Handler) http.Handler {
	return withPrincipal("require_admin", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		if !principal.IsAdmin() {
			slog.Warn("Admin access denied",
				"layer", "handlers",
				"path", r.URL.Path,
				"principal_id", principal.ID)
			return project.ErrForbidden
		}
		next.ServeHTTP(w, r)
		return nil
	})
}

// RateLimit limits each principal to the limiter's quota. A nil limiter disables it.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return withPrincipal("rate_limit", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
			if !limiter.Allow(r.Context(), principal.ID.String()) {
				slog.Warn("Rate limit exceeded",
					"layer", "handlers",
					"path", r.URL.Path,
					"principal_id", principal.ID)
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
				return ErrRateLimited
			}
			next.ServeHTTP(w, r)
			return nil
		})
	}
}
