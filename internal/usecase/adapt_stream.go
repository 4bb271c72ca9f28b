package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"adapt-orchestrator/internal/domain"
	"adapt-orchestrator/internal/infra/logger"
)

type adaptUsecase struct {
	source domain.TokenSource
	window time.Duration
	logger *slog.Logger
}

// NewAdaptUsecase wires a token source and a coalescing window into an
// AdaptUsecase. window <= 0 disables coalescing.
func NewAdaptUsecase(source domain.TokenSource, window time.Duration, logger *slog.Logger) AdaptUsecase {
	return &adaptUsecase{
		source: source,
		window: window,
		logger: logger,
	}
}

// Validate checks the request fields without touching the provider.
func (u *adaptUsecase) Validate(input AdaptInput) error {
	if input.SourceType != SourceTypeText {
		return fmt.Errorf("source_type %q: %w", input.SourceType, ErrUnsupportedRequest)
	}
	if strings.TrimSpace(input.Payload) == "" {
		return fmt.Errorf("empty payload: %w", ErrUnsupportedRequest)
	}
	return nil
}

// Stream opens the provider stream, coalesces fragments, and emits the
// resulting chunks as StreamEvents. The channel closes after the terminal
// event, or without one when ctx is cancelled (the consumer is gone).
func (u *adaptUsecase) Stream(ctx context.Context, input AdaptInput) <-chan StreamEvent {
	events := make(chan StreamEvent, 4)
	go func() {
		defer close(events)
		log := logger.FromContext(ctx, u.logger)

		frags, errs, err := u.source.Open(ctx, domain.StreamRequest{
			Text:  input.Payload,
			Level: input.Level,
			Mode:  input.Mode,
		})
		if err != nil {
			log.Error("failed to open provider stream", "error", err)
			u.send(ctx, events, StreamEvent{Kind: StreamEventKindError, Err: err})
			return
		}

		chunks := Coalesce(ctx, frags, u.window)
		for chunk := range chunks {
			if !u.send(ctx, events, StreamEvent{Kind: StreamEventKindDelta, Chunk: chunk}) {
				return
			}
		}

		if ctx.Err() != nil {
			// Client cancelled mid-stream; the provider has already been
			// torn down through the shared context.
			return
		}

		if streamErr, ok := <-errs; ok && streamErr != nil {
			log.Error("provider stream failed", "error", streamErr)
			u.send(ctx, events, StreamEvent{Kind: StreamEventKindError, Err: streamErr})
			return
		}

		u.send(ctx, events, StreamEvent{Kind: StreamEventKindDone})
	}()
	return events
}

func (u *adaptUsecase) send(ctx context.Context, events chan<- StreamEvent, event StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- event:
		return true
	}
}
