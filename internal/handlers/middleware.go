package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/teslo-shop/apiserver/internal/auth"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/types"
	"golang.org/x/time/rate"
)

// PrincipalResolver turns a bearer token into the live user behind it.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (types.User, error)
}

// Guard authenticates requests and enforces route role requirements.
type Guard struct {
	resolver PrincipalResolver
	log      *slog.Logger
}

func NewGuard(resolver PrincipalResolver, log *slog.Logger) *Guard {
	return &Guard{resolver: resolver, log: log}
}

// RequireAuth resolves the bearer token into a principal on every request and
// stores it in the request context.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := g.resolver.ResolvePrincipal(r.Context(), token)
		if err != nil {
			g.log.Debug("reject token",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				logging.Err(err),
			)
			writeServiceError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), user)))
	})
}

// RequireRoles admits the request when the principal holds any of roles.
// With no roles it only requires that a principal is present in the context.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := principalFromContext(r.Context())
			if principal == nil {
				writeError(w, http.StatusBadRequest, auth.ErrMissingPrincipal.Error())
				return
			}

			err := auth.CanAccess(roles, principal)
			if err != nil {
				var roleErr *auth.InsufficientRoleError
				switch {
				case errors.As(err, &roleErr):
					writeError(w, http.StatusForbidden, roleErr.Error())
				case errors.Is(err, auth.ErrMissingPrincipal):
					writeError(w, http.StatusBadRequest, err.Error())
				default:
					writeError(w, http.StatusInternalServerError, "Unexpected error, check server logs")
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Auth combines authentication with a role requirement for one route.
func (g *Guard) Auth(roles ...string) func(http.Handler) http.Handler {
	requireRoles := RequireRoles(roles...)
	return func(next http.Handler) http.Handler {
		return g.RequireAuth(requireRoles(next))
	}
}

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	lastScan time.Time
	now      func() time.Time
	log      *slog.Logger
}

func NewRateLimiter(rps float64, burst int, log *slog.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		log:     log,
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastScan) > limiterIdleTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastScan = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}
		if !l.allow(key) {
			l.log.Warn("too many requests",
				slog.String("client", key),
				slog.String("path", r.URL.Path),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
