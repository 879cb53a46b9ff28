package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zainsaleem101/chat-app/internal/config"
	"github.com/zainsaleem101/chat-app/internal/identity"
	"github.com/zainsaleem101/chat-app/internal/registry"
	"github.com/zainsaleem101/chat-app/internal/room"
	"github.com/zainsaleem101/chat-app/internal/server"
	"github.com/zainsaleem101/chat-app/internal/signaling"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("signaling server starting",
		zap.String("port", cfg.Port),
		zap.String("authBaseURL", cfg.AuthBaseURL),
		zap.String("allowedOrigin", cfg.AllowedOrigin),
	)

	verifier := identity.NewHTTPVerifier(cfg.AuthBaseURL, cfg.AuthAPIKey, cfg.AuthTimeout)
	reg := registry.New(verifier, cfg.AuthTimeout, logger)
	rooms := room.NewManager(logger)
	hub := signaling.NewHub(cfg, reg, rooms, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(cfg, hub, verifier, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
