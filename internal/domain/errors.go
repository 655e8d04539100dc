package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrStoreUnavailable marks a session-backend failure. It is the only
// error allowed to abort a turn before any agent runs.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ValidationError is bad user input at a stage. Recovered locally: the
// stage re-prompts and neither stage nor draft change.
type ValidationError struct {
	Stage  Stage
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input at stage %q: %s", e.Stage, e.Reason)
}

// CollaboratorError wraps a failed call to an external collaborator
// (LLM, search, place-data write). Retryable errors may be retried
// with bounded backoff for idempotent reads; writes never are.
type CollaboratorError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// NewCollaboratorError wraps err for the given operation. Timeouts and
// cancellations are always retryable.
func NewCollaboratorError(op string, retryable bool, err error) *CollaboratorError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		retryable = true
	}
	return &CollaboratorError{Op: op, Retryable: retryable, Err: err}
}

// IsRetryable reports whether err is a retryable collaborator failure.
func IsRetryable(err error) bool {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded)
}
