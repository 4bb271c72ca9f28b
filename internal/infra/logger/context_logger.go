package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Per-session observability keys propagated through the request context.
	SessionIDKey  ContextKey = "adapt.session.id"
	RemoteAddrKey ContextKey = "adapt.session.remote_addr"
	StageKey      ContextKey = "adapt.session.stage"
)

// WithSessionID adds the session id to the context for observability
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithRemoteAddr adds the peer address to the context for observability
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, RemoteAddrKey, addr)
}

// WithStage adds the session lifecycle stage to the context for observability
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// FromContext returns base with any session context values attached as fields.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	var fields []any

	if sid := ctx.Value(SessionIDKey); sid != nil {
		fields = append(fields, string(SessionIDKey), sid)
	}
	if addr := ctx.Value(RemoteAddrKey); addr != nil {
		fields = append(fields, string(RemoteAddrKey), addr)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}

	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}
