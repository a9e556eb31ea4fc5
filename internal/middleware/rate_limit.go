package middleware

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/lib/ratelimit"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/deppfellow/routekit/internal/route"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/labstack/echo/v4"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// TooManyRequestsMessage is the message of the 429 raised by Consume.
const TooManyRequestsMessage = "Too Many Request"

type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Consume is a route stage charging one point per request: to the public
// limiter keyed by the configured path parameter (or the client IP) when no
// Authorization header is present, to the private limiter keyed by the
// header otherwise.
func (r *RateLimitMiddleware) Consume(c echo.Context, next route.Next) (any, error) {
	limiters := r.server.RateLimit

	limiter, key, kind := limiters.Private, c.Request().Header.Get(echo.HeaderAuthorization), "private"
	if key == "" {
		limiter, kind = limiters.Public, "public"
		if param := r.server.Config.RateLimit.PublicKeyParam; param != "" {
			key = c.Param(param)
		}
		if key == "" {
			key = c.RealIP()
		}
	}

	result, err := limiter.Consume(c.Request().Context(), key)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	setHeaders(c, result)

	if !result.Allowed {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Floor(result.ResetAfter.Seconds()))))

		request.Logger(c).Warn().
			Str("limiter", kind).
			Str("path", c.Path()).
			Msg("rate limit hit")

		return nil, errs.NewTooManyRequestsError(TooManyRequestsMessage)
	}

	next(nil)
	return nil, nil
}

func setHeaders(c echo.Context, result ratelimit.Result) {
	header := c.Response().Header()
	header.Set(HeaderRateLimitLimit, strconv.Itoa(result.Limit))
	header.Set(HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
	header.Set(HeaderRateLimitReset, time.Now().Add(result.ResetAfter).UTC().Format(time.RFC1123))
}
