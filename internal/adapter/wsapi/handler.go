package wsapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"adapt-orchestrator/internal/infra/logger"
	"adapt-orchestrator/internal/usecase"
)

const closeWriteTimeout = time.Second

// Handler upgrades HTTP requests to WebSocket sessions.
type Handler struct {
	uc            usecase.AdaptUsecase
	botSecret     string
	providerReady bool
	logger        *slog.Logger
	upgrader      websocket.Upgrader
}

func NewHandler(uc usecase.AdaptUsecase, botSecret string, providerReady bool, logger *slog.Logger) *Handler {
	return &Handler{
		uc:            uc,
		botSecret:     botSecret,
		providerReady: providerReady,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The handshake signature is the auth boundary, not the Origin
			// header; the page is served from inside a webview.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Adapt runs one session for the lifetime of the connection.
// (GET /ws/adapt)
func (h *Handler) Adapt(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	ctx := logger.WithRemoteAddr(c.Request().Context(), c.RealIP())
	sess := NewSession(newGorillaConn(ws), h.uc, h.botSecret, h.providerReady, h.logger)
	sess.Run(ctx)
	return nil
}

// gorillaConn adapts *websocket.Conn to the session's Conn contract with
// an idempotent close.
type gorillaConn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
}

func newGorillaConn(ws *websocket.Conn) *gorillaConn {
	return &gorillaConn{ws: ws}
}

func (c *gorillaConn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *gorillaConn) WriteJSON(v any) error {
	return c.ws.WriteJSON(v)
}

func (c *gorillaConn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
		_ = c.ws.Close()
	})
	return nil
}
