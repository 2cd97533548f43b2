package ply

// Error codes a caller can branch on, mirroring the reader's sticky
// valid boolean with a Go-idiomatic error value for the call that
// detected the problem (spec §7).
const (
	CodeIO              = "io"
	CodeInvalidHeader   = "invalid_header"
	CodeNotLoaded       = "not_loaded"
	CodeUnknownProperty = "unknown_property"
	CodeBounds          = "bounds"
)

// Error represents a ply package error.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Common sentinel errors for callers using errors.Is against Code via a
// type switch (Go has no const comparison on structs, so compare Code).
var (
	ErrInvalidHeader   = &Error{Code: CodeInvalidHeader, Message: "invalid PLY header"}
	ErrNotLoaded       = &Error{Code: CodeNotLoaded, Message: "current element is not loaded"}
	ErrUnknownProperty = &Error{Code: CodeUnknownProperty, Message: "unknown property"}
)
