package wsapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"adapt-orchestrator/internal/auth"
	"adapt-orchestrator/internal/domain"
	"adapt-orchestrator/internal/infra/logger"
	"adapt-orchestrator/internal/usecase"
)

// State is the session lifecycle stage, used for logging.
type State string

const (
	StateInit           State = "init"
	StateAuthenticating State = "authenticating"
	StateValidating     State = "validating"
	StateStreaming      State = "streaming"
	StateClosing        State = "closing"
	StateClosed         State = "closed"
)

// Conn is the connection surface a session drives. Close must be
// idempotent; closing an already-closed connection is a no-op.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	Close(code int, reason string) error
}

// Session owns one client connection end-to-end: handshake, signature
// verification, request validation, streaming, and close policy. One
// session per connection, no state shared across sessions.
type Session struct {
	id            string
	conn          Conn
	uc            usecase.AdaptUsecase
	botSecret     string
	providerReady bool
	logger        *slog.Logger

	state        State
	terminalSent bool
	connected    bool
}

func NewSession(conn Conn, uc usecase.AdaptUsecase, botSecret string, providerReady bool, logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:            id,
		conn:          conn,
		uc:            uc,
		botSecret:     botSecret,
		providerReady: providerReady,
		logger:        logger.With(slog.String("session_id", id)),
		state:         StateInit,
		connected:     true,
	}
}

// Run drives the session to completion. It never panics outward; every
// exit path closes the connection with a specific close code, except when
// the peer is already gone.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.shutdown(websocket.CloseNormalClosure, "")

	s.state = StateAuthenticating
	raw, err := s.conn.ReadMessage()
	if err != nil {
		s.logger.Info("client closed before handshake")
		s.connected = false
		return
	}

	var init InitMessage
	if err := json.Unmarshal(raw, &init); err != nil {
		s.logger.Warn("unparseable handshake message", "error", err)
		s.fail("bad init message", websocket.CloseUnsupportedData)
		return
	}

	if !auth.Verify(init.InitData, s.botSecret) {
		s.logger.Warn("init data signature rejected")
		s.fail("invalid init_data", websocket.ClosePolicyViolation)
		return
	}

	s.state = StateValidating
	input := usecase.AdaptInput{
		SourceType: init.SourceType,
		Payload:    init.Payload,
		Level:      init.Level,
		Mode:       init.Mode,
	}
	if input.SourceType == "" {
		input.SourceType = usecase.SourceTypeText
	}

	if err := s.uc.Validate(input); err != nil {
		s.logger.Warn("unsupported request", "error", err)
		s.fail("unsupported request", websocket.CloseUnsupportedData)
		return
	}

	if !s.providerReady {
		s.logger.Error("provider not configured")
		s.fail("provider API key not configured", websocket.CloseInternalServerErr)
		return
	}

	// The peer signals disconnect with a close frame; reading is what
	// surfaces it. Cancelling tears down the in-flight provider stream.
	go func() {
		for {
			if _, err := s.conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	s.state = StateStreaming
	ctx = logger.WithSessionID(ctx, s.id)
	ctx = logger.WithStage(ctx, string(StateStreaming))
	s.logger.Info("stream starting", "level", input.Level, "mode", input.Mode)
	if !s.sendEvent(Event{Type: EventStart, Data: strPtr("stream-begin")}) {
		return
	}

	seq := 0
	for event := range s.uc.Stream(ctx, input) {
		switch event.Kind {
		case usecase.StreamEventKindDelta:
			n := seq
			if !s.sendEvent(Event{Type: EventToken, Data: strPtr(event.Chunk), Seq: &n}) {
				return
			}
			seq++

		case usecase.StreamEventKindError:
			s.fail(clientMessage(event.Err), websocket.CloseInternalServerErr)
			return

		case usecase.StreamEventKindDone:
			n := seq
			if s.sendEvent(Event{Type: EventEnd, Data: strPtr("stream-end"), Seq: &n}) {
				s.terminalSent = true
				s.logger.Info("stream completed", "tokens", seq)
			}
			return
		}
	}
	// Event channel closed without a terminal event: the client went away
	// mid-stream. Expected termination, nothing left to tell the peer.
	s.logger.Info("client disconnected mid-stream", "tokens", seq)
}

// sendEvent writes one event, treating a write failure as client
// disconnect: no further events are emitted.
func (s *Session) sendEvent(event Event) bool {
	if !s.connected {
		return false
	}
	if err := s.conn.WriteJSON(event); err != nil {
		s.logger.Info("write failed, peer gone", "error", err)
		s.connected = false
		return false
	}
	return true
}

// fail emits the single terminating error event and closes with code.
func (s *Session) fail(message string, code int) {
	if !s.terminalSent {
		s.sendEvent(Event{Type: EventError, Data: strPtr(message)})
		s.terminalSent = true
	}
	s.shutdown(code, message)
}

func (s *Session) shutdown(code int, reason string) {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosing
	if err := s.conn.Close(code, reason); err != nil {
		s.logger.Debug("connection close", "error", err)
	}
	s.state = StateClosed
}

func clientMessage(err error) string {
	var streamErr *domain.StreamError
	switch {
	case errors.As(err, &streamErr):
		return "provider error: stream failed"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "provider error: service unavailable"
	default:
		return "internal error"
	}
}

func strPtr(s string) *string {
	return &s
}
