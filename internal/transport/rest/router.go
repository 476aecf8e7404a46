// Package rest assembles the HTTP API: middleware chain, authenticated
// feature routes, and the public verification and operational endpoints.
package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	credhandler "trustbridge/internal/credential/handler"
	dochandler "trustbridge/internal/document/handler"
	"trustbridge/internal/platform/middleware"
	"trustbridge/internal/platform/web"
	rephandler "trustbridge/internal/reputation/handler"
)

// Deps collects everything the router mounts.
type Deps struct {
	Logger      *slog.Logger
	Auth        middleware.TokenValidator
	Documents   *dochandler.Handler
	Reputation  *rephandler.Handler
	Credentials *credhandler.Handler
}

// New builds the full route tree. Verification, health, and metrics are
// public; everything else sits behind bearer auth.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		web.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	deps.Credentials.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Auth, deps.Logger))
		deps.Documents.Register(r)
		deps.Reputation.Register(r)
		deps.Credentials.Register(r)
	})

	return r
}
