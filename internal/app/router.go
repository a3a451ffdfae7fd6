package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/doughjo-app/doughjo/internal/accounts"
	"github.com/doughjo-app/doughjo/internal/auth"
	"github.com/doughjo-app/doughjo/internal/goals"
	"github.com/doughjo-app/doughjo/internal/observability"
	"github.com/doughjo-app/doughjo/internal/platform/httpx"
	"github.com/doughjo-app/doughjo/internal/profile"
	"github.com/doughjo-app/doughjo/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	AuthHandler     *auth.Handler
	AccountsHandler *accounts.Handler
	GoalsHandler    *goals.Handler
	ProfileHandler  *profile.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with DoughJo defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireUser)
		r.Route("/accounts", params.AccountsHandler.MountRoutes)
		r.Route("/goals", params.GoalsHandler.MountRoutes)
		r.Route("/profile", params.ProfileHandler.MountRoutes)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// requireUser rejects API requests that lack an authenticated session.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.RespondError(w, shared.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
