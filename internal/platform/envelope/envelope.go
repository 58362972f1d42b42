// Package envelope defines the JSON wrapper every API response uses.
package envelope

import (
	"github.com/labstack/echo/v4"
)

type Success struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Failure struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// OK writes data wrapped in a success envelope.
func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, Success{Success: true, Data: data})
}

// OKWithMessage is OK with a human readable message alongside the data.
func OKWithMessage(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Success{Success: true, Message: message, Data: data})
}

func Fail(code, message string) Failure {
	return Failure{Error: ErrorBody{Code: code, Message: message}}
}
