package usecase

import (
	"context"
	"errors"
)

// SourceTypeText is the only supported payload kind.
const SourceTypeText = "text"

// ErrUnsupportedRequest marks a handshake whose fields are well-formed JSON
// but outside what the service accepts (wrong source kind, empty payload).
var ErrUnsupportedRequest = errors.New("only source_type=text with non-empty payload supported")

// AdaptInput encapsulates the parameters of one adaptation request.
type AdaptInput struct {
	SourceType string
	Payload    string
	Level      string
	Mode       string
}

// AdaptUsecase validates adaptation requests and streams adapted text.
type AdaptUsecase interface {
	Validate(input AdaptInput) error
	Stream(ctx context.Context, input AdaptInput) <-chan StreamEvent
}

type StreamEventKind string

const (
	StreamEventKindDelta StreamEventKind = "delta"
	StreamEventKindDone  StreamEventKind = "done"
	StreamEventKindError StreamEventKind = "error"
)

// StreamEvent is one element of the adaptation pipeline's output sequence.
// Delta events carry a text chunk in Chunk; error events carry Err. The
// sequence contains at most one terminal event (done or error), always last.
type StreamEvent struct {
	Kind  StreamEventKind
	Chunk string
	Err   error
}
