package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adapt-orchestrator/internal/domain"
	"adapt-orchestrator/internal/usecase"
)

// stubTokenSource replays scripted fragments and an optional failure.
type stubTokenSource struct {
	frags     []string
	streamErr error
	openErr   error

	opened  bool
	lastReq domain.StreamRequest
}

func (s *stubTokenSource) Open(ctx context.Context, req domain.StreamRequest) (<-chan string, <-chan error, error) {
	s.opened = true
	s.lastReq = req
	if s.openErr != nil {
		return nil, nil, s.openErr
	}

	frags := make(chan string, len(s.frags))
	errs := make(chan error, 1)
	for _, f := range s.frags {
		frags <- f
	}
	if s.streamErr != nil {
		errs <- s.streamErr
	}
	close(frags)
	close(errs)
	return frags, errs, nil
}

func (s *stubTokenSource) Version() string { return "stub" }

func newAdaptUsecase(source domain.TokenSource) usecase.AdaptUsecase {
	testLogger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return usecase.NewAdaptUsecase(source, 0, testLogger)
}

func collectStreamEvents(ch <-chan usecase.StreamEvent) []usecase.StreamEvent {
	var events []usecase.StreamEvent
	for e := range ch {
		events = append(events, e)
	}
	return events
}

func validInput() usecase.AdaptInput {
	return usecase.AdaptInput{
		SourceType: usecase.SourceTypeText,
		Payload:    "Hello world",
		Level:      "B1",
	}
}

func TestValidate_AcceptsTextWithPayload(t *testing.T) {
	uc := newAdaptUsecase(&stubTokenSource{})

	assert.NoError(t, uc.Validate(validInput()))
}

func TestValidate_RejectsWrongSourceType(t *testing.T) {
	uc := newAdaptUsecase(&stubTokenSource{})

	input := validInput()
	input.SourceType = "url"

	assert.ErrorIs(t, uc.Validate(input), usecase.ErrUnsupportedRequest)
}

func TestValidate_RejectsEmptyPayload(t *testing.T) {
	uc := newAdaptUsecase(&stubTokenSource{})

	input := validInput()
	input.Payload = "   "

	assert.ErrorIs(t, uc.Validate(input), usecase.ErrUnsupportedRequest)
}

func TestStream_EmitsDeltasThenDone(t *testing.T) {
	source := &stubTokenSource{frags: []string{"Hel", "lo ", "world"}}
	uc := newAdaptUsecase(source)

	events := collectStreamEvents(uc.Stream(context.Background(), validInput()))

	require.Len(t, events, 4)
	assert.Equal(t, usecase.StreamEventKindDelta, events[0].Kind)
	assert.Equal(t, "Hel", events[0].Chunk)
	assert.Equal(t, "lo ", events[1].Chunk)
	assert.Equal(t, "world", events[2].Chunk)
	assert.Equal(t, usecase.StreamEventKindDone, events[3].Kind)
}

func TestStream_PassesRequestToSource(t *testing.T) {
	source := &stubTokenSource{frags: []string{"x"}}
	uc := newAdaptUsecase(source)

	input := validInput()
	input.Level = "A2"
	input.Mode = "summary"
	collectStreamEvents(uc.Stream(context.Background(), input))

	assert.Equal(t, "Hello world", source.lastReq.Text)
	assert.Equal(t, "A2", source.lastReq.Level)
	assert.Equal(t, "summary", source.lastReq.Mode)
}

func TestStream_OpenFailureEmitsSingleError(t *testing.T) {
	source := &stubTokenSource{openErr: domain.ErrProviderUnavailable}
	uc := newAdaptUsecase(source)

	events := collectStreamEvents(uc.Stream(context.Background(), validInput()))

	require.Len(t, events, 1)
	assert.Equal(t, usecase.StreamEventKindError, events[0].Kind)
	assert.ErrorIs(t, events[0].Err, domain.ErrProviderUnavailable)
}

func TestStream_MidStreamFailureEndsWithErrorNotDone(t *testing.T) {
	streamErr := &domain.StreamError{Err: errors.New("connection reset")}
	source := &stubTokenSource{frags: []string{"par", "tial"}, streamErr: streamErr}
	uc := newAdaptUsecase(source)

	events := collectStreamEvents(uc.Stream(context.Background(), validInput()))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, usecase.StreamEventKindError, last.Kind)

	var got *domain.StreamError
	assert.ErrorAs(t, last.Err, &got)
	for _, e := range events {
		assert.NotEqual(t, usecase.StreamEventKindDone, e.Kind, "failed stream must not report done")
	}
}

func TestStream_CancelledContextEmitsNoTerminalEvent(t *testing.T) {
	source := &stubTokenSource{frags: []string{"a", "b"}}
	uc := newAdaptUsecase(source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := collectStreamEvents(uc.Stream(ctx, validInput()))

	for _, e := range events {
		assert.NotEqual(t, usecase.StreamEventKindDone, e.Kind)
		assert.NotEqual(t, usecase.StreamEventKindError, e.Kind)
	}
}
