package request

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Keys used to store request-scoped values on the echo context.
const (
	RequestIDKey = "request_id"
	UserIDKey    = "user_id"
	LoggerKey    = "logger"
)

// RequestID returns the correlation id set by the request id middleware, or "".
func RequestID(c echo.Context) string {
	if requestID, ok := c.Get(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// UserID returns the caller id recorded by the auth stage, or "" for
// anonymous requests.
func UserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// Logger retrieves the request-scoped logger.
//
// If the context enhancer middleware didn't run, it returns a no-op logger.
func Logger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return logger
	}

	logger := zerolog.Nop()
	return &logger
}
