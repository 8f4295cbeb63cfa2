package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("exit status 1")
	tests := []struct {
		err      *Error
		text     string
		userText string
	}{
		{New(ErrCodeInvalidInput, "unknown quality: %s", "max"), "INVALID_INPUT: unknown quality: max", "unknown quality: max"},
		{Wrap(ErrCodeExternalTool, cause, "markmap"), "EXTERNAL_TOOL: markmap: exit status 1", "markmap: exit status 1"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.text {
			t.Errorf("Error() = %q, want %q", got, tt.text)
		}
		if got := UserMessage(tt.err); got != tt.userText {
			t.Errorf("UserMessage() = %q, want %q", got, tt.userText)
		}
	}
	if got := UserMessage(cause); got != "exit status 1" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeProviderUnreachable, cause, "probe bucket")

	if errors.Unwrap(err) != cause || !errors.Is(err, cause) {
		t.Error("cause not reachable through the chain")
	}
}

func TestCodeThroughChain(t *testing.T) {
	inner := New(ErrCodeArtifactInvalid, "png too small")
	wrapped := fmt.Errorf("generate: %w", inner)

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"direct", inner, ErrCodeArtifactInvalid},
		{"fmt wrapped", wrapped, ErrCodeArtifactInvalid},
		{"outermost wins", Wrap(ErrCodeStorage, inner, "upload"), ErrCodeStorage},
		{"plain", errors.New("x"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
			if tt.want != "" && !Is(tt.err, tt.want) {
				t.Errorf("Is(%q) = false", tt.want)
			}
		})
	}
	if Is(wrapped, ErrCodeRender) {
		t.Error("Is matched the wrong code")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		ErrCodeInvalidInput:          http.StatusBadRequest,
		ErrCodeInvalidPath:           http.StatusBadRequest,
		ErrCodeNotFound:              http.StatusNotFound,
		ErrCodeExternalTool:          http.StatusUnprocessableEntity,
		ErrCodeRender:                http.StatusUnprocessableEntity,
		ErrCodeArtifactInvalid:       http.StatusUnprocessableEntity,
		ErrCodeStorage:               http.StatusInternalServerError,
		ErrCodeProviderMisconfigured: http.StatusInternalServerError,
		ErrCodeInternal:              http.StatusInternalServerError,
		"":                           http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := code.HTTPStatus(); got != want {
			t.Errorf("%q.HTTPStatus() = %d, want %d", code, got, want)
		}
	}
}
