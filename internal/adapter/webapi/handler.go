package webapi

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"adapt-orchestrator/internal/auth"
)

// Handler serves the non-streaming HTTP surface: liveness, health, and the
// init-data verification endpoint shared with bot-side callers.
type Handler struct {
	botSecret string
	logger    *slog.Logger
}

func NewHandler(botSecret string, logger *slog.Logger) *Handler {
	return &Handler{
		botSecret: botSecret,
		logger:    logger,
	}
}

// Root is a plain-text liveness probe.
// (GET /)
func (h *Handler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Healthz reports process health.
// (GET /healthz)
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type verifyRequest struct {
	InitData string `json:"init_data"`
}

// Verify checks a signed init-data blob and returns its application fields.
// (POST /api/verify)
func (h *Handler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.InitData == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "init_data is required"})
	}

	if !auth.Verify(req.InitData, h.botSecret) {
		h.logger.Warn("init data verification failed")
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
	}

	data, err := auth.ParseForApp(req.InitData)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad init_data"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok":        true,
		"user":      data["user"],
		"query_id":  data["query_id"],
		"auth_date": data["auth_date"],
	})
}
