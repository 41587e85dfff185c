package http

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/auth"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
)

const (
	localClaims    = "claims"
	localRequestID = "request_id"
	headerRequest  = "X-Request-ID"
)

// RequestLogger tags every request with an id and logs it once it completes.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		id := c.Get(headerRequest)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(localRequestID, id)
		c.Set(headerRequest, id)

		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error().Err(err)
		}
		if claims := currentUser(c); claims != nil {
			ev = ev.Str("user", claims.Username())
		}
		ev.Str("request_id", id).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}

func currentUser(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(localClaims).(*auth.Claims)
	return claims
}

func bearer(header string) string {
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func unauthorized(c *fiber.Ctx, reason, description string) error {
	c.Set(fiber.HeaderWWWAuthenticate,
		fmt.Sprintf(`Bearer realm="access", error=%q, error_description=%q`, reason, description))
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "unauthorized",
		"reason":  reason,
		"message": description,
	})
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	token := bearer(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return unauthorized(c, "invalid_request", "Missing Authorization Bearer token.")
	}
	claims, err := s.auth.Authenticate(c.UserContext(), token)
	switch {
	case errors.Is(err, service.ErrTokenRevoked):
		return unauthorized(c, "invalid_token", "Token has been revoked. Please login again.")
	case errors.Is(err, auth.ErrInvalidToken):
		return unauthorized(c, "invalid_token", "Invalid or expired token.")
	case err != nil:
		return err
	}
	c.Locals(localClaims, claims)
	return c.Next()
}

func forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": message})
}

// allowRoute admits the request when the caller's role grants scope. Admin
// always passes.
func (s *Server) allowRoute(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := currentUser(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing user context"})
		}
		scopes, err := s.auth.Scopes(c.UserContext(), claims.Username())
		if err != nil {
			log.Error().Err(err).Str("user", claims.Username()).Msg("load role scopes")
			return forbidden(c, "RBAC check failed")
		}
		if !scopes.AllowsRoute(scope) {
			return forbidden(c, "Access to route is not permitted for your role")
		}
		return c.Next()
	}
}

// checkTable rejects names that are not safe identifiers or not on the
// proxy allow-list before any role lookup happens.
func (s *Server) checkTable(c *fiber.Ctx) error {
	name := c.Params("name")
	if !repository.IsSafeIdentifier(name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid table name"})
	}
	if !s.tableListed(name) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Table not found"})
	}
	return c.Next()
}

func (s *Server) tableListed(name string) bool {
	for _, t := range s.opts.Tables {
		if t == name {
			return true
		}
	}
	return false
}

func (s *Server) allowTable(c *fiber.Ctx) error {
	claims := currentUser(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing user context"})
	}
	scopes, err := s.auth.Scopes(c.UserContext(), claims.Username())
	if err != nil {
		log.Error().Err(err).Str("user", claims.Username()).Msg("load role scopes")
		return forbidden(c, "RBAC check failed")
	}
	if !scopes.AllowsTable(c.Params("name")) {
		return forbidden(c, "Access to table is not permitted for your role")
	}
	return c.Next()
}

// RateLimiter hands out one token bucket per client IP. A bucket left idle
// long enough to refill completely is dropped on the next sweep.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiter
	every     time.Duration
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows a burst of 10 login attempts per IP, refilled at one
// every six seconds.
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{limiters: make(map[string]*ipLimiter), every: 6 * time.Second, burst: 10, now: time.Now}
	rl.idle = time.Duration(rl.burst) * rl.every
	return rl
}

func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idle {
		rl.sweep(now)
	}

	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rate.Every(rl.every), rl.burst)}
		rl.limiters[ip] = l
	}
	l.lastSeen = now
	return l.limiter
}

// Len reports how many IPs currently hold a bucket.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for ip, l := range rl.limiters {
		if now.Sub(l.lastSeen) >= rl.idle {
			delete(rl.limiters, ip)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.GetLimiter(c.IP()).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "message": "Too many login attempts"})
		}
		return c.Next()
	}
}
