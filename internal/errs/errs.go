// Package errs is the shared error catalog for the RFE pipeline. Handlers,
// the worker pool and tests match on these with errors.As / errors.Is instead
// of string comparison.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a referenced case, document, issue or draft no
// longer exists. Background jobs seeing this are discarded, not retried.
var ErrNotFound = errors.New("record not found")

// ExtractionFailure is fatal for one document: the document row is marked
// failed with message and timestamp, and the error propagates to the caller.
type ExtractionFailure struct {
	DocumentId string
	Msg        string
	FailedAt   time.Time
	Err        error
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("extraction failed for document %s: %s", e.DocumentId, e.Msg)
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// NoExtractableText halts a case analysis before any model call is made.
type NoExtractableText struct {
	CaseId string
}

func (e *NoExtractableText) Error() string {
	return "no text extracted"
}

// ExternalServiceError wraps a failed embedding or completion call.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s service call failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// MalformedResponse means the completion output could not be parsed into the
// expected structure. Fatal for that analysis run.
type MalformedResponse struct {
	Detail string
}

func (e *MalformedResponse) Error() string {
	return "malformed model response: " + e.Detail
}

// LockConflict is a non-fatal rejection naming the current lock holder.
type LockConflict struct {
	HeldBy   string
	LockedAt time.Time
}

func (e *LockConflict) Error() string {
	return fmt.Sprintf("draft is locked by %s", e.HeldBy)
}

// InvalidTransition rejects an out-of-order case status change.
type InvalidTransition struct {
	From   string
	Action string
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("cannot apply %q from state %q", e.Action, e.From)
}

// IsRetryable reports whether a background job hitting this error should be
// handed back to the scheduler for another attempt.
func IsRetryable(err error) bool {
	var svcErr *ExternalServiceError
	return errors.As(err, &svcErr)
}
