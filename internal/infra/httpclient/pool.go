package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused across all pooled clients so concurrent
// sessions hit the provider over warm connections instead of paying a
// TLS handshake per stream.
var sharedTransport = &http.Transport{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
	DisableKeepAlives:   false,
}

// NewPooledClient creates an http.Client that shares a connection pool
// with other pooled clients.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}

// NewStreamingClient creates a pooled client with no overall timeout.
// Streaming responses stay open for the lifetime of a session, so the
// deadline is carried by the request context instead.
func NewStreamingClient() *http.Client {
	return &http.Client{
		Transport: sharedTransport,
	}
}
