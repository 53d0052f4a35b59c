package remoteregistry

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed wraps transport and read failures from a Fetcher.
	ErrFetchFailed = errors.New("remoteregistry: fetch failed")
	// ErrHTTPStatus is matched by every *StatusError.
	ErrHTTPStatus = errors.New("remoteregistry: unexpected HTTP status")
	// ErrNotFound means no manifest exists for the name. Registry reports it as macrodex.ErrTemplateNotFound.
	ErrNotFound = errors.New("remoteregistry: no manifest found")
)

// StatusError is a non-2xx, non-404 response from HTTPFetcher.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrHTTPStatus, e.Status, e.URL)
}

// Unwrap returns ErrHTTPStatus.
func (e *StatusError) Unwrap() error { return ErrHTTPStatus }

// Temporary reports whether retrying later may succeed (429 and 5xx).
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
