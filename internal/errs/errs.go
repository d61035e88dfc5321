// Package errs defines the typed failures reported by the recognition pipelines.
//
// Every pipeline returns its failures to the immediate caller as an *Error
// carrying one of the Kind codes below. Nothing is retried: the pipelines are
// deterministic, so a second attempt on the same input cannot succeed.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	// KindDecode means the image bytes could not be decoded.
	KindDecode Kind = "DECODE_ERROR"

	// KindDimension means two images have incompatible sizes.
	KindDimension Kind = "DIMENSION_ERROR"

	// KindShape means an inference output tensor does not have the expected layout.
	KindShape Kind = "SHAPE_ERROR"

	// KindEngine means the inference call itself failed.
	KindEngine Kind = "ENGINE_ERROR"

	// KindConfiguration means a model or charset needed by the call is not loaded.
	KindConfiguration Kind = "CONFIGURATION_ERROR"
)

// Error is a structured pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Factory functions for each kind

func Decode(cause error) *Error {
	return &Error{Kind: KindDecode, Message: "failed to decode image", Cause: cause}
}

func Dimension(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDimension, Message: fmt.Sprintf(format, args...)}
}

func Shape(format string, args ...interface{}) *Error {
	return &Error{Kind: KindShape, Message: fmt.Sprintf(format, args...)}
}

func Engine(cause error) *Error {
	return &Error{Kind: KindEngine, Message: "inference failed", Cause: cause}
}

func Configuration(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
