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

	"github.com/hrpanel/hrpanel/internal/app"
	"github.com/hrpanel/hrpanel/internal/auth"
	"github.com/hrpanel/hrpanel/internal/bonus"
	bonushttp "github.com/hrpanel/hrpanel/internal/bonus/http"
	"github.com/hrpanel/hrpanel/internal/months"
	monthshttp "github.com/hrpanel/hrpanel/internal/months/http"
	"github.com/hrpanel/hrpanel/internal/observability"
	"github.com/hrpanel/hrpanel/internal/payroll"
	"github.com/hrpanel/hrpanel/internal/platform/cache"
	"github.com/hrpanel/hrpanel/internal/platform/db"
	"github.com/hrpanel/hrpanel/internal/rbac"
	"github.com/hrpanel/hrpanel/internal/reports"
	reportshttp "github.com/hrpanel/hrpanel/internal/reports/http"
	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/snapshots"
	"github.com/hrpanel/hrpanel/internal/view"
	"github.com/hrpanel/hrpanel/jobs"
	"github.com/hrpanel/hrpanel/report"
)

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

	sessionManager := shared.NewSessionManager(redisClient, "hrpanel_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	rbacService := rbac.NewService(pool)
	if err := rbacService.EnsurePermissions(ctx); err != nil {
		logger.Warn("ensure permissions", slog.Any("error", err))
	}
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	archiver := snapshots.NewArchiver(
		snapshots.NewRepository(pool),
		snapshots.PositionRefs{ManagerPostID: cfg.ManagerPostID, AssistantPostID: cfg.AssistantPostID},
		logger,
		metrics,
	)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient := jobs.NewClient(redisOpts, cfg.SnapshotRetryDelay)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	monthsService := months.NewService(
		months.NewRepository(pool),
		archiver,
		logger,
		months.WithRetryScheduler(jobsClient),
		months.WithAudit(shared.NewAuditLogger(pool)),
		months.WithMetrics(metrics),
	)
	bonusService := bonus.NewService(bonus.NewRepository(pool))
	payrollService := payroll.NewService(payroll.NewRepository(pool, cfg.ManagerPostID), bonusService, metrics)
	reportsService := reports.NewService(monthsService, payrollService, archiver, metrics)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	pdfExporter := &reports.PDFExporter{Templates: templates, Converter: pdfClient}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		RBACMiddleware: rbacMiddleware,
		AuthHandler:    authHandler,
		MonthsHandler:  monthshttp.NewHandler(logger, monthsService, templates, csrfManager, rbacMiddleware),
		ReportsHandler: reportshttp.NewHandler(logger, reportsService, pdfExporter, templates, csrfManager, rbacMiddleware),
		BonusHandler:   bonushttp.NewHandler(logger, bonusService, templates, csrfManager, rbacMiddleware),
		AccessHandler:  rbac.NewAccessHandler(logger, rbacService, templates, csrfManager, rbacMiddleware),
		PDFHandler:     report.NewHandler(pdfClient, logger),
		JobHandler:     jobs.NewHandler(inspector, logger),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
