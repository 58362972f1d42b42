package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/auth"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/cache"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long an unused client limiter is kept.
	IdleTTL time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		IdleTTL:           10 * time.Minute,
	}
}

// limiterStore holds one token bucket per client key. Idle buckets expire.
type limiterStore struct {
	limiters *cache.Memory[*rate.Limiter]
	cfg      RateLimitConfig
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig().IdleTTL
	}
	return &limiterStore{
		limiters: cache.New[*rate.Limiter](cfg.IdleTTL, cfg.IdleTTL),
		cfg:      cfg,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	l := s.limiters.GetOrCreate(key, s.cfg.IdleTTL, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.BurstSize)
	})
	s.limiters.Touch(key, s.cfg.IdleTTL)
	return l
}

// retryAfter is the whole number of seconds until l has a token again.
func retryAfter(l *rate.Limiter) int {
	r := l.Reserve()
	if !r.OK() {
		return 1
	}
	d := r.Delay()
	r.Cancel()
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimit limits requests per authenticated user, falling back to the
// client IP for anonymous requests.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newLimiterStore(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if u, ok := auth.CurrentUser(c); ok {
				key = "user:" + u.UserID.String()
			}

			l := store.get(key)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)
			if !l.Allow() {
				h.Set("Retry-After", strconv.Itoa(retryAfter(l)))
				h.Set("X-RateLimit-Remaining", "0")
				return apperror.New(429, apperror.CodeRateLimited, "Too many requests. Please try again later.")
			}
			h.Set("X-RateLimit-Remaining", strconv.Itoa(int(l.Tokens())))
			return next(c)
		}
	}
}
