// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"io/fs"
)

// Common application errors.
var (
	// Resolution errors. Both are recovered locally by default-record
	// synthesis and never surfaced to the user.
	ErrNotFound      = errors.New("not found")
	ErrDecodeFailure = errors.New("sidecar decode failure")

	// ErrTimeout indicates a remote materialization wait exceeded its bound.
	ErrTimeout = errors.New("timed out waiting for file")

	// ErrMutationsPaused indicates storage access was revoked and must be
	// re-granted before further writes.
	ErrMutationsPaused = errors.New("mutations paused until storage access is restored")

	// Configuration errors.
	ErrMissingRoot   = errors.New("storage root is not configured")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IOError wraps a filesystem failure with enough context to show a
// user-facing message: which operation on which path.
type IOError struct {
	Err  error
	Op   string
	Path string
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError wraps a filesystem error with its operation and path.
func NewIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// PermissionError is the distinguished IOError subtype for
// permission-class failures. It signals the caller to request re-granted
// storage access; mutations stay paused until then.
type PermissionError struct {
	IOError
}

// NewPermissionError wraps a permission-class filesystem error.
func NewPermissionError(op, path string, err error) error {
	return &PermissionError{IOError{Op: op, Path: path, Err: err}}
}

// IsPermission reports whether an error is permission-class, either our
// own PermissionError or an OS-level fs.ErrPermission.
func IsPermission(err error) bool {
	var perm *PermissionError
	if errors.As(err, &perm) {
		return true
	}
	return errors.Is(err, fs.ErrPermission)
}

// WrapIO classifies a raw filesystem error: permission failures become
// PermissionError, everything else a plain IOError. A nil error stays nil.
func WrapIO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return NewPermissionError(op, path, err)
	}
	return NewIOError(op, path, err)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
