package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"goeat/internal/metrics"
)

const (
	partnerIDKey = "partnerID"
	partnerScope = "ROLE_PARTNER"
)

// requestLogger logs each request and records route metrics.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.ObserveHTTPRequest(c.Request.Method, route, status, elapsed)

		evt := logger.Debug()
		if status >= http.StatusInternalServerError {
			evt = logger.Warn()
		}
		evt.Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// partnerAuth validates an HS256 bearer token carrying partnerId and ROLE_PARTNER scope.
func partnerAuth(secret []byte, issuer string) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, http.StatusUnauthorized, "missing authorization header")
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			abortWithError(c, http.StatusUnauthorized, "invalid authorization format, use 'Bearer <token>'")
			return
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}); err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		if !hasScope(claims, partnerScope) {
			abortWithError(c, http.StatusForbidden, "partner scope required")
			return
		}

		partnerID, err := partnerIDFromClaims(claims)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(partnerIDKey, partnerID)
		c.Next()
	}
}

func hasScope(claims jwt.MapClaims, want string) bool {
	switch v := claims["scope"].(type) {
	case string:
		for _, s := range strings.Fields(v) {
			if s == want {
				return true
			}
		}
	case []interface{}:
		for _, s := range v {
			if str, ok := s.(string); ok && str == want {
				return true
			}
		}
	}
	return false
}

func partnerIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, _ := claims["partnerId"].(string)
	if raw == "" {
		return uuid.Nil, errors.New("could not identify the authenticated partner")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("could not identify the authenticated partner")
	}
	return id, nil
}

func authenticatedPartner(c *gin.Context) uuid.UUID {
	v, _ := c.Get(partnerIDKey)
	id, _ := v.(uuid.UUID)
	return id
}

// apiKeyAuth guards admin routes with a static X-Api-Key.
func apiKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			abortWithError(c, http.StatusForbidden, "admin api disabled")
			return
		}
		got := c.GetHeader("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			abortWithError(c, http.StatusUnauthorized, "invalid api key")
			return
		}
		c.Next()
	}
}

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	max      int
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		max:      10000,
	}
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= rl.max {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
