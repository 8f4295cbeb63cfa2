// Package errors defines the coded errors shared by every mindmapper package.
//
// A failure that leaves a package carries a [Code]. The coordinator copies the
// code into the generation result and the HTTP server maps it to a status, so
// neither has to inspect message text.
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown quality: %s", q)
//	err = errors.Wrap(errors.ErrCodeRender, cause, "navigate to %s", url)
//	if errors.Is(err, errors.ErrCodeInvalidInput) { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable failure category.
type Code string

const (
	// Rejected before any work started.
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Render stages.
	ErrCodeExternalTool    Code = "EXTERNAL_TOOL"    // markmap or another subprocess exited non-zero
	ErrCodeRender          Code = "RENDER"           // browser or rasterizer failure
	ErrCodeArtifactInvalid Code = "ARTIFACT_INVALID" // raster missing, corrupt or undersized

	// Storage selection and uploads.
	ErrCodeStorage               Code = "STORAGE"
	ErrCodeUnknownProvider       Code = "UNKNOWN_PROVIDER"
	ErrCodeProviderMisconfigured Code = "PROVIDER_MISCONFIGURED"
	ErrCodeProviderUnreachable   Code = "PROVIDER_UNREACHABLE"

	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// HTTPStatus is the response status for a request that failed with c.
// Input problems are the caller's fault; render problems mean the outline
// could not be drawn; the rest are server faults.
func (c Code) HTTPStatus() int {
	switch c {
	case ErrCodeInvalidInput, ErrCodeInvalidPath:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeExternalTool, ErrCodeRender, ErrCodeArtifactInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause == nil {
		return msg
	}
	return msg + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap returns an *Error with a formatted message that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage is err's text without the code prefix.
func UserMessage(err error) string {
	e, ok := asError(err)
	if !ok {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
