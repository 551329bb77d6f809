package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hrms-api/api/swagger"
	"github.com/noah-isme/hrms-api/internal/handler"
	"github.com/noah-isme/hrms-api/internal/middleware"
	"github.com/noah-isme/hrms-api/internal/repository"
	"github.com/noah-isme/hrms-api/internal/router"
	"github.com/noah-isme/hrms-api/internal/service"
	"github.com/noah-isme/hrms-api/pkg/cache"
	"github.com/noah-isme/hrms-api/pkg/config"
	"github.com/noah-isme/hrms-api/pkg/database"
	"github.com/noah-isme/hrms-api/pkg/jobs"
	"github.com/noah-isme/hrms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hrms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hrms-api/pkg/middleware/requestid"
	"github.com/noah-isme/hrms-api/pkg/storage"
)

// @title HRMS API
// @version 1.0.0
// @description Attendance, leave and payroll administration
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := service.NewValidator()
	location := cfg.Attendance.Location()

	employeeRepo := repository.NewEmployeeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	missPunchRepo := repository.NewMissPunchRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
		Location: location,
		Queries:  metrics,
	})
	attachmentSvc := service.NewAttachmentService(attachmentRepo, uploadStore,
		storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL), logr,
		service.AttachmentConfig{
			MaxFiles:          cfg.Uploads.MaxFiles,
			MaxFileSizeBytes:  cfg.Uploads.MaxFileSizeBytes,
			AllowedExtensions: cfg.Uploads.AllowedExtensions,
			URLPrefix:         cfg.APIPrefix,
		})
	employeeSvc := service.NewEmployeeService(employeeRepo, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, employeeRepo, metrics, validate, logr, service.AttendanceConfig{
		StandardHours: cfg.Attendance.StandardHours,
		Location:      location,
	})
	leaveSvc := service.NewLeaveService(leaveRepo, employeeRepo, attachmentSvc, attendanceRepo, holidaySvc, dashboardSvc, validate, logr)
	missPunchSvc := service.NewMissPunchService(missPunchRepo, employeeRepo, attachmentSvc, attendanceSvc, dashboardSvc, validate, logr)
	payrollSvc := service.NewPayrollService(payrollRepo, attendanceRepo, employeeRepo, metrics, validate, logr, service.PayrollConfig{
		OvertimeRate:   cfg.Payroll.OvertimeRate,
		RunConcurrency: cfg.Payroll.RunConcurrency,
	})

	exportSvc := service.NewExportService(attendanceRepo, payrollRepo, exportStore,
		storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL}, logr)
	reportWorker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.Config{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		OnDone: func(_ jobs.Job, outcome jobs.Outcome, elapsed time.Duration) {
			metrics.ObserveReportJob(string(outcome), elapsed)
		},
	})
	reportSvc := service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})

	reportQueue.Start(ctx)
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = redisPinger(redisClient)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{Origins: cfg.CORS.AllowedOrigins}))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.ResponseMeta())

	router.Register(r, router.Handlers{
		Employees:   handler.NewEmployeeHandler(employeeSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc),
		MissPunches: handler.NewMissPunchHandler(missPunchSvc),
		Leaves:      handler.NewLeaveHandler(leaveSvc),
		Holidays:    handler.NewHolidayHandler(holidaySvc),
		Payroll:     handler.NewPayrollHandler(payrollSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Reports:     handler.NewReportHandler(reportSvc),
		Attachments: handler.NewAttachmentHandler(attachmentSvc),
		Metrics:     handler.NewMetricsHandler(metrics, checks),
	}, router.Options{
		APIPrefix:     cfg.APIPrefix,
		EnableSwagger: cfg.Env != config.EnvProduction,
		EnableMetrics: cfg.Metrics.Enabled,
		AuditWriter:   auditRepo,
		Logger:        logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "api_prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	reportQueue.Stop()
	logr.Info("server stopped", zap.Any("report_queue", reportQueue.Stats()))
}

func redisPinger(client *redis.Client) handler.Pinger {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
