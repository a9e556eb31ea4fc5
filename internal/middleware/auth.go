package middleware

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/deppfellow/routekit/internal/route"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// AuthRequiredMessage is the message of the 401 raised by Verify.
const AuthRequiredMessage = "Auth Key Required"

// AuthMiddleware holds the app Server so middleware can access shared deps.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// Verify is a route stage that fails with 401 when the Authorization header is
// missing. Otherwise it records the caller id on the context, the request
// logger and the New Relic transaction, then defers to the next stage.
func (auth *AuthMiddleware) Verify(c echo.Context, next route.Next) (any, error) {
	key := c.Request().Header.Get(echo.HeaderAuthorization)
	if key == "" {
		request.Logger(c).Debug().Str("function", "Verify").Msg("missing authorization header")
		return nil, errs.NewUnauthorizedError(AuthRequiredMessage)
	}

	userID := CallerID(key)
	c.Set(request.UserIDKey, userID)

	logger := request.Logger(c).With().Str("user_id", userID).Logger()
	c.Set(request.LoggerKey, &logger)

	if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
		txn.AddAttribute("user.id", userID)
	}

	next(nil)
	return nil, nil
}

// CallerID derives a stable id from an Authorization value without exposing it.
func CallerID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "key:" + hex.EncodeToString(sum[:8])
}
