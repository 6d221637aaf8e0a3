package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/comanda-erp/comanda/cmd/comanda/cli"
	"github.com/comanda-erp/comanda/internal/app"
	"github.com/comanda-erp/comanda/internal/audit"
	"github.com/comanda-erp/comanda/internal/auth"
	"github.com/comanda-erp/comanda/internal/observability"
	"github.com/comanda-erp/comanda/internal/platform/db"
	"github.com/comanda-erp/comanda/internal/platform/kv"
	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/session"
	"github.com/comanda-erp/comanda/internal/shared"
	"github.com/comanda-erp/comanda/internal/view"
	"github.com/comanda-erp/comanda/jobs"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "policy" {
		os.Exit(cli.PolicyCommand(os.Args[2:], cli.PolicyOptions{}))
	}
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("comanda stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	registry := rbac.DefaultRegistry()
	authz := rbac.NewAuthorizer(registry)
	metrics := observability.NewMetrics()

	var records kv.Scoper
	switch cfg.SessionBackend {
	case "memory":
		records = kv.NewMemory()
	default:
		client, err := kv.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		records = kv.NewRedis(client, "comanda:session:", cfg.SessionTTL)
	}

	var repo auth.Repository
	switch cfg.IdentitySource {
	case "postgres":
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{ApplicationName: "comanda", MaxConns: cfg.PGMaxConns})
		if err != nil {
			return err
		}
		defer pool.Close()
		repo = auth.NewRepository(pool)
	default:
		demo, err := auth.NewDemoRepository(cfg.DemoCredential)
		if err != nil {
			return err
		}
		repo = demo
	}

	observers := session.Observers{metrics}
	if cfg.AuditEnabled {
		queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := queue.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		observers = append(observers, audit.NewPublisher(queue, logger))
	}

	sessions := session.NewManager(session.ManagerConfig{
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.IsProduction(),
		Scope: func(clientID string) kv.Store {
			return records.Scoped(clientID + ":")
		},
		Store: session.StoreConfig{
			Authenticator: auth.NewService(repo, cfg.AuthLoginLatency),
			Registry:      registry,
			Observer:      observers,
			Logger:        logger,
		},
		Logger: logger,
	})

	templates, err := view.NewEngine(rbac.TemplateFuncs(authz))
	if err != nil {
		return err
	}
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		Templates:   templates,
		Sessions:    sessions,
		CSRFManager: csrfManager,
		Authorizer:  authz,
		AuthHandler: auth.NewHandler(logger, templates, csrfManager),
		JobHandler:  jobs.NewHandler(inspector, logger),
		Metrics:     metrics,
	})
	if err := app.ValidatePolicy(registry, router.Guards, templates); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr),
			slog.String("sessions", cfg.SessionBackend), slog.String("identity", cfg.IdentitySource))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sessions.RunJanitor(gctx, time.Minute, cfg.SessionIdleEvict)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
