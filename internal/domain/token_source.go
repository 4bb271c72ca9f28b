package domain

import "context"

// StreamRequest describes one adaptation stream to open against the provider.
type StreamRequest struct {
	Text  string
	Level string
	Mode  string
}

// TokenSource defines the capability to open a lazy, finite, forward-only
// fragment stream for a request. Fragments arrive in submission order on the
// first channel and are never empty. A mid-stream failure is delivered on the
// error channel and terminates the stream. Cancelling ctx aborts the upstream
// request and releases its resources.
type TokenSource interface {
	Open(ctx context.Context, req StreamRequest) (<-chan string, <-chan error, error)
	Version() string
}
