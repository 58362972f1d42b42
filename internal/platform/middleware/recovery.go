package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/auth"
)

// Recovery turns a handler panic into a 500 envelope. The stack is logged
// with the request and the caller, never sent to the client.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				evt := logger.Error().
					Str("method", c.Request().Method).
					Str("path", c.Path()).
					Interface("panic", r).
					Bytes("stack", debug.Stack())
				if rid, ok := c.Get("request_id").(string); ok {
					evt = evt.Str("request_id", rid)
				}
				if u, ok := auth.CurrentUser(c); ok {
					evt = evt.Str("user_id", u.UserID.String())
				}
				evt.Msg("handler panicked")

				err = apperror.Internal(apperror.CodeInternal, fmt.Errorf("panic: %v", r))
			}()
			return next(c)
		}
	}
}
