package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mcdev12/snakedraft/go/internal/config"
	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// setupServer serves connect RPC, the REST API and /health on one port.
// health may be nil when the relay runs in another process.
func setupServer(cfg config.ServerConfig, services *Services, health http.Handler) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{draft.ErrorKindHeader},
	})

	registerServices(r, services)
	setupHealthCheck(r, health)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      h2c.NewHandler(c.Handler(r), &http2.Server{}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func registerServices(r chi.Router, services *Services) {
	// Register draft connect service
	draftServicePath, draftServiceHandler := draft.NewDraftServiceHandler(services.Draft)
	r.Handle(draftServicePath+"*", draftServiceHandler)

	// Register REST routes for polling clients
	r.Mount("/api", services.Gateway.Routes())
}

func setupHealthCheck(r chi.Router, health http.Handler) {
	if health != nil {
		r.Method(http.MethodGet, "/health", health)
		return
	}
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
