package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates the tracker could not be reached.
	ErrUnavailable = errors.New("tracker unavailable")

	// ErrTimeout indicates a request exceeded the configured timeout.
	ErrTimeout = errors.New("tracker request timed out")

	// ErrRetryExhausted indicates all retry attempts failed.
	ErrRetryExhausted = errors.New("tracker retry attempts exhausted")

	// ErrNotFound indicates the record does not exist or is not visible.
	ErrNotFound = errors.New("tracker record not found")

	// ErrUnauthorized indicates the tracker rejected the API key.
	ErrUnauthorized = errors.New("tracker rejected credentials")

	// ErrRejected indicates the tracker refused a write (validation failure).
	ErrRejected = errors.New("tracker rejected request")

	// ErrDecode indicates the tracker answered with a body that is not the
	// expected JSON shape. It is never retried.
	ErrDecode = errors.New("tracker response could not be decoded")

	// ErrPaginationInvariant indicates the server's reported total is
	// inconsistent with the pages it returned.
	ErrPaginationInvariant = errors.New("pagination invariant violated")
)

// PaginationInvariantError describes why a paginated listing was abandoned.
type PaginationInvariantError struct {
	Reason     string
	Pages      int
	Fetched    int
	TotalCount int
}

func (e *PaginationInvariantError) Error() string {
	return fmt.Sprintf("%s: %s after %d pages (%d of %d items)",
		ErrPaginationInvariant, e.Reason, e.Pages, e.Fetched, e.TotalCount)
}

func (e *PaginationInvariantError) Unwrap() error {
	return ErrPaginationInvariant
}

// StatusError carries an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tracker returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Code >= 500 || e.Code == 429
}
