package middleware

import (
	"context"
	"errors"
	"math"
	"strconv"

	"ordinary-note/internal/infra/ratelimit"
	"ordinary-note/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type RateLimiter interface {
	Allow(ctx context.Context, rule ratelimit.Rule, key string) (ratelimit.Decision, error)
}

// IP単位のレート制限。Redisが落ちているときは通す。
func RateLimit(limiter RateLimiter, rule ratelimit.Rule, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := limiter.Allow(c.Request().Context(), rule, c.RealIP())

			h := c.Response().Header()
			if errors.Is(err, ratelimit.ErrRateLimited) {
				h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
				h.Set("RateLimit-Remaining", "0")
				h.Set(echo.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
				return usecase.ErrRateLimited
			}
			if err != nil {
				log.WithError(err).WithField("rule", rule.Name).Warn("rate limiter unavailable, allowing request")
				return next(c)
			}

			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			return next(c)
		}
	}
}
