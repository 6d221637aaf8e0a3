package app

import (
	"io/fs"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/comanda-erp/comanda/internal/auth"
	"github.com/comanda-erp/comanda/internal/observability"
	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/session"
	"github.com/comanda-erp/comanda/internal/shared"
	"github.com/comanda-erp/comanda/internal/view"
	"github.com/comanda-erp/comanda/jobs"
	"github.com/comanda-erp/comanda/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Templates   *view.Engine
	Sessions    *session.Manager
	CSRFManager *shared.CSRFManager
	Authorizer  *rbac.Authorizer
	AuthHandler *auth.Handler
	JobHandler  *jobs.Handler
	Metrics     *observability.Metrics
}

// Router is the HTTP entry point together with the guards it registered.
type Router struct {
	http.Handler
	Guards rbac.Middleware
}

// NewRouter constructs the chi.Router with Comanda defaults.
func NewRouter(params RouterParams) *Router {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := pages{templates: params.Templates, csrf: params.CSRFManager, logger: logger}
	guards := rbac.NewMiddleware(rbac.MiddlewareConfig{
		Authorizer: params.Authorizer,
		Denials:    p,
		Logger:     logger,
		Observer:   denialObserver(params.Metrics),
	})

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      logger,
		Config:      params.Config,
		Sessions:    params.Sessions,
		CSRFManager: params.CSRFManager,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}
	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AuthHandler != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Use(loginRateLimit)
			params.AuthHandler.MountRoutes(r)
		})
	}
	mountModules(r, guards, p)
	mountSecurity(r, guards, p)
	r.Route("/api", func(r chi.Router) {
		mountAPI(r, guards)
	})
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(guards.RequireAny(rbac.PermSecurityView))
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		ensureMimeType(logger, ".css", "text/css; charset=utf-8")
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return &Router{Handler: r, Guards: guards}
}

// staticCacheHandler caches static assets in the browser for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

func ensureMimeType(logger *slog.Logger, ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		logger.Warn("register mime type", slog.String("ext", ext), slog.Any("error", err))
	}
}

func denialObserver(m *observability.Metrics) rbac.DenialObserver {
	if m == nil {
		return nil
	}
	return m
}
