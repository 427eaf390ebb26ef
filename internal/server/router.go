package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/orgu/internal/config"
	"github.com/sevigo/orgu/internal/core"
	"github.com/sevigo/orgu/internal/server/handler"
)

// minRequestTimeout is the shortest time a /run request is allowed to take.
const minRequestTimeout = 15 * time.Minute

// NewRouter creates and configures a new HTTP router with middleware and runner routes.
func NewRouter(cfg *config.Config, dispatcher core.Dispatcher, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	ok := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
	r.Get("/", ok)
	r.Get("/health", ok)

	runHandler := handler.NewRunHandler(cfg.Server.Select, dispatcher, logger)
	r.With(middleware.Timeout(RequestTimeout(cfg))).Post("/run", runHandler.Handle)

	return r
}

// RequestTimeout is how long a dispatch may hold its HTTP request: the
// checkout and job budgets plus a minute for GitHub calls.
func RequestTimeout(cfg *config.Config) time.Duration {
	d := cfg.Checkout.FetchTimeout + cfg.Job.Timeout + time.Minute
	if d < minRequestTimeout {
		return minRequestTimeout
	}
	return d
}
