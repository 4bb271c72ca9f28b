package domain

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable means the upstream client could not be constructed
// or the initial request was rejected before any fragment was produced.
var ErrProviderUnavailable = errors.New("provider unavailable")

// StreamError wraps a failure that occurred after the stream was opened.
// It reaches the consumer at the point of failure and is never retried
// within a session.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("provider stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
