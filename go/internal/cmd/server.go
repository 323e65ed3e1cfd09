package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(config *Config, services *Services) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: config.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	registerServices(r, services)
	services.WebSocket.RegisterRoutes(r)
	setupHealthCheck(r)

	return &http.Server{
		Addr:              ":" + config.Server.Port,
		Handler:           h2c.NewHandler(c.Handler(r), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func registerServices(r chi.Router, services *Services) {
	poolServicePath, poolServiceHandler := services.Pool.Handler()
	r.Mount(poolServicePath, poolServiceHandler)
}

func setupHealthCheck(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
