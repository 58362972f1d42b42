package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_WrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("save claim: %w", Internal("", cause))

	appErr, ok := As(err)
	if !ok {
		t.Fatal("expected *Error in chain")
	}
	if appErr.Status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", appErr.Status)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
		code   string
	}{
		{NotFound("Claim not found"), 404, CodeNotFound},
		{Forbidden("Access denied"), 403, CodeForbidden},
		{Validation("", "bad"), 400, CodeValidation},
		{Validation(CodeMissingFields, "bad"), 400, CodeMissingFields},
		{Conflict(CodeEmailTaken, "taken"), 409, CodeEmailTaken},
		{Unauthorized(CodeInvalidToken, "no"), 401, CodeInvalidToken},
		{Upstream("AI down", nil), 502, CodeExtraction},
		{Internal(CodeUploadFailed, nil), 500, CodeUploadFailed},
	}
	for _, tt := range tests {
		if tt.err.Status != tt.status || tt.err.Code != tt.code {
			t.Errorf("got %d/%s, want %d/%s", tt.err.Status, tt.err.Code, tt.status, tt.code)
		}
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("x"))
	if !IsCode(err, CodeNotFound) {
		t.Error("expected RESOURCE_NOT_FOUND")
	}
	if IsCode(err, CodeForbidden) {
		t.Error("did not expect FORBIDDEN")
	}
	if IsCode(errors.New("plain"), CodeNotFound) {
		t.Error("plain errors carry no code")
	}
}

func TestWithCause_Copies(t *testing.T) {
	base := Forbidden("no")
	withCause := base.WithCause(errors.New("owner mismatch"))
	if base.Cause != nil {
		t.Error("original must not be modified")
	}
	if withCause.Cause == nil {
		t.Error("expected cause on copy")
	}
}
