// Package server builds the HTTP surface: health, metrics, the realtime
// channel, and the REST mirrors of room minting and token verification.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zainsaleem101/chat-app/internal/config"
	"github.com/zainsaleem101/chat-app/internal/identity"
	"github.com/zainsaleem101/chat-app/internal/middleware"
	"github.com/zainsaleem101/chat-app/internal/signaling"
)

func New(cfg *config.Config, hub *signaling.Hub, verifier identity.Verifier, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := &handlers{verifier: verifier, timeout: cfg.AuthTimeout, logger: logger}

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", hub.ServeWS)

	r.Post("/auth/verify", h.verify)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/rooms", h.createRoom)
	})

	return r
}
