package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/envelope"
)

// ErrorHandler renders every error as a failure envelope. Messages of
// internal errors are replaced and their cause is logged instead.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Str("code", body.Error.Code).Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}

func classify(err error) (int, envelope.Failure) {
	if appErr, ok := apperror.As(err); ok {
		msg := appErr.Message
		if appErr.Status >= http.StatusInternalServerError && appErr.Code == apperror.CodeInternal {
			msg = "An unexpected error occurred"
		}
		return appErr.Status, envelope.Fail(appErr.Code, msg)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		if he.Code >= http.StatusInternalServerError {
			msg = "An unexpected error occurred"
		}
		return he.Code, envelope.Fail(codeForStatus(he.Code), msg)
	}

	return http.StatusInternalServerError, envelope.Fail(apperror.CodeInternal, "An unexpected error occurred")
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperror.CodeBadRequest
	case http.StatusUnauthorized:
		return apperror.CodeUnauthorized
	case http.StatusForbidden:
		return apperror.CodeForbidden
	case http.StatusNotFound:
		return apperror.CodeRouteNotFound
	case http.StatusMethodNotAllowed:
		return apperror.CodeMethodNotAllowed
	case http.StatusRequestEntityTooLarge:
		return apperror.CodePayloadTooLarge
	case http.StatusTooManyRequests:
		return apperror.CodeRateLimited
	default:
		return apperror.CodeInternal
	}
}
