package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/aegis-grc/aegis-grc/internal/app"
	"github.com/aegis-grc/aegis-grc/internal/auth"
	"github.com/aegis-grc/aegis-grc/internal/controls"
	"github.com/aegis-grc/aegis-grc/internal/observability"
	"github.com/aegis-grc/aegis-grc/internal/platform/cache"
	"github.com/aegis-grc/aegis-grc/internal/platform/db"
	"github.com/aegis-grc/aegis-grc/internal/projects"
	"github.com/aegis-grc/aegis-grc/internal/rbac"
	"github.com/aegis-grc/aegis-grc/internal/regulations"
	"github.com/aegis-grc/aegis-grc/internal/shared"
	"github.com/aegis-grc/aegis-grc/internal/users"
	"github.com/aegis-grc/aegis-grc/jobs"
)

// queueNotifier publishes role-assignment changes to the job queue.
type queueNotifier struct {
	client *jobs.Client
}

func (n queueNotifier) RoleAssignmentsChanged(ctx context.Context, change users.AssignmentChange) error {
	payload := jobs.RoleAssignmentChangedPayload{
		UserID:    change.UserID,
		ProjectID: change.ProjectID,
		Added:     roleCodes(change.Added),
		Removed:   roleCodes(change.Removed),
	}
	_, err := n.client.EnqueueRoleAssignmentsChanged(ctx, payload)
	return err
}

func roleCodes(roles []rbac.RoleCode) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, string(role))
	}
	return out
}

func main() {
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "aegis_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	seeder := rbac.NewSeeder(rbac.NewSeedStore(pool), logger, cfg.BootstrapAdminEmail)
	if err := seeder.Seed(ctx); err != nil {
		logger.Error("seed role catalog", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	rbacService := rbac.NewService(rbac.NewRepository(pool))
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger, Decisions: metrics}
	rbacHandler := rbac.NewHandler(logger, rbacService, rbacMiddleware)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, queueNotifier{client: jobClient}, logger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	projectsHandler := projects.NewHandler(logger, projects.NewRepository(pool), rbacMiddleware)
	regulationsHandler := regulations.NewHandler(logger, regulations.NewRepository(pool), rbacMiddleware)

	controlsService := controls.NewService(controls.NewRepository(pool), logger)
	controlsHandler := controls.NewHandler(logger, controlsService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		RBACHandler:        rbacHandler,
		UsersHandler:       usersHandler,
		ProjectsHandler:    projectsHandler,
		RegulationsHandler: regulationsHandler,
		ControlsHandler:    controlsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
