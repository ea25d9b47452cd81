// Package errors contains the error helpers used throughout dirmirror. Errors
// are wrapped with a short description of the operation that failed so that
// the final message reads like a trace, e.g.
// "sync pass: list replica: open /replica: permission denied".
package errors

import (
	"fmt"

	pkgErrors "github.com/pkg/errors"
)

// New returns an error with the given message.
func New(msg string, args ...interface{}) error {
	if len(args) == 0 {
		return pkgErrors.New(msg)
	}
	return pkgErrors.Errorf(msg, args...)
}

// WithContext annotates `err` with a description of what was being done when
// the error occurred. It returns nil if `err` is nil.
func WithContext(err error, context string) error {
	return pkgErrors.WithMessage(err, context)
}

// RootCause returns the original error that was wrapped by calls to
// WithContext.
func RootCause(err error) error {
	return pkgErrors.Cause(err)
}

// friendlyError is an error whose message is meant to be shown to the user
// as-is, without any of the context used for debugging.
type friendlyError struct {
	msg string
}

// NewFriendlyError creates an error that should be shown to the user without
// modification.
func NewFriendlyError(msgFormat string, args ...interface{}) error {
	return friendlyError{fmt.Sprintf(msgFormat, args...)}
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

type friendlyMessager interface {
	FriendlyMessage() string
}

// GetFriendlyMessage returns the friendly message of the root cause of `err`,
// if it has one.
func GetFriendlyMessage(err error) (string, bool) {
	if friendly, ok := RootCause(err).(friendlyMessager); ok {
		return friendly.FriendlyMessage(), true
	}
	return "", false
}

// GetPrintableMessage returns the message that should be printed to the user
// for `err`. Friendly errors are printed verbatim, and all other errors are
// printed with their full context.
func GetPrintableMessage(err error) string {
	if msg, ok := GetFriendlyMessage(err); ok {
		return msg
	}
	return fmt.Sprintf("Error: %s", err)
}
