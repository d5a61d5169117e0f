package cli

import (
	"errors"
	"fmt"
)

// Exit codes reported by the tripcoil process.
const (
	ExitSuccess      = 0 // clean run
	ExitFailure      = 1 // validation findings (excluded rows, unusable documents, no session)
	ExitCommandError = 2 // command-level problems (unreadable paths, bad invocations)
)

// ExitError carries the exit code a command failure should terminate with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError builds an ExitError from a code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to an underlying error.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error returned by Execute.
// Errors that carry no ExitError default to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
