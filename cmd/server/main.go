package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"adapt-orchestrator/internal/adapter/provider"
	"adapt-orchestrator/internal/adapter/webapi"
	"adapt-orchestrator/internal/adapter/wsapi"
	"adapt-orchestrator/internal/infra/config"
	"adapt-orchestrator/internal/infra/httpclient"
	"adapt-orchestrator/internal/infra/logger"
	"adapt-orchestrator/internal/ratelimit"
	"adapt-orchestrator/internal/usecase"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.NewWithOTel(cfg.EnableOTel)
	slog.SetDefault(log)

	if cfg.BotSecret == "" {
		log.Error("BOT_SECRET is required")
		os.Exit(1)
	}

	// 3. Initialize Adapters
	streamer := provider.NewOpenAIStreamer(
		cfg.ProviderBaseURL,
		cfg.ProviderModel,
		cfg.ProviderAPIKey,
		httpclient.NewStreamingClient(),
		log,
	)
	streamer.Timeout = time.Duration(cfg.ProviderTimeout) * time.Second

	// 4. Initialize Usecases
	window := time.Duration(cfg.CoalesceWindowMS) * time.Millisecond
	adaptUsecase := usecase.NewAdaptUsecase(streamer, window, log)

	// 5. Rate limiter shared by the public entry points
	limiter, err := ratelimit.New(
		time.Duration(cfg.RateWindowMS)*time.Millisecond,
		cfg.RateMaxHits,
		cfg.RateMaxKeys,
	)
	if err != nil {
		log.Error("failed to build rate limiter", "error", err)
		os.Exit(1)
	}

	// 6. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// 7. Register Handlers
	providerReady := cfg.ProviderAPIKey != ""
	if !providerReady {
		log.Warn("provider API key not configured; sessions will be refused")
	}

	webHandler := webapi.NewHandler(cfg.BotSecret, log)
	wsHandler := wsapi.NewHandler(adaptUsecase, cfg.BotSecret, providerReady, log)

	e.GET("/", webHandler.Root)
	e.GET("/healthz", webHandler.Healthz)
	e.POST("/api/verify", webHandler.Verify, limiter.Middleware("verify"))
	e.GET("/ws/adapt", wsHandler.Adapt, limiter.Middleware("adapt"))
	e.Static("/webapp", cfg.StaticDir)

	// 8. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr, "model", streamer.Version())
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
