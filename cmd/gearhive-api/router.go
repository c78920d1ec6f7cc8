package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gearhive/gearhive/cmd/gearhive-api/handlers"
	"github.com/gearhive/gearhive/cmd/gearhive-api/middleware"
)

func newRouter(auth *middleware.Authenticator, chat *handlers.ChatHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/chat", chat.HandleChat)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "gearhive-api",
	})
}
