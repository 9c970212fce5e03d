package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campus-hq/academics-api/api/swagger"
	"github.com/campus-hq/academics-api/internal/handler"
	"github.com/campus-hq/academics-api/internal/middleware"
	"github.com/campus-hq/academics-api/internal/repository"
	"github.com/campus-hq/academics-api/internal/service"
	"github.com/campus-hq/academics-api/pkg/cache"
	"github.com/campus-hq/academics-api/pkg/config"
	"github.com/campus-hq/academics-api/pkg/database"
	"github.com/campus-hq/academics-api/pkg/logger"
	corsmiddleware "github.com/campus-hq/academics-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-hq/academics-api/pkg/middleware/requestid"
	"github.com/campus-hq/academics-api/pkg/storage"
)

// @title Academics API
// @version 1.0.0
// @description Role-based academic administration backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheService *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheService = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, logr)
	}
	cacheEnabled := cfg.Dashboard.CacheEnabled && cacheService != nil

	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	offeredRepo := repository.NewOfferedSubjectRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	defaulterRepo := repository.NewDefaulterRepository(db)
	reportJobRepo := repository.NewReportJobRepository(db)

	authService := service.NewAuthService(userRepo, cfg.JWT, logr)
	departmentService := service.NewDepartmentService(departmentRepo, logr)
	classService := service.NewClassService(classRepo, userRepo, logr)
	subjectService := service.NewSubjectService(subjectRepo, offeredRepo, assignmentRepo, logr)
	catalogService := service.NewCatalogService(assignmentRepo, offeredRepo, selectionRepo, subjectRepo, studentRepo, classRepo, logr)
	eligibilityService := service.NewEligibilityService(offeredRepo, userRepo, logr)
	selectionService := service.NewSelectionService(selectionRepo, assignmentRepo, offeredRepo, studentRepo, classRepo, metrics, logr)
	reconcileService := service.NewReconcileService(assignmentRepo, selectionRepo, studentRepo, logr)
	completionService := service.NewCompletionService(submissionRepo, subjectRepo, selectionRepo, studentRepo, logr)
	submissionService := service.NewSubmissionService(submissionRepo, defaulterRepo, studentRepo, reconcileService, metrics, logr)
	studentService := service.NewStudentService(studentRepo, classRepo, cfg.Imports.MaxBatchSize, logr)
	batchService := service.NewBatchService(batchRepo, classRepo, subjectRepo, logr)

	var dashboardService *service.DashboardService
	if cacheService != nil {
		dashboardService = service.NewDashboardService(
			studentRepo, classRepo, departmentRepo, subjectRepo,
			catalogService, selectionService, completionService, reconcileService,
			cacheService, cacheEnabled, cfg.Dashboard.CacheTTL, logr)
	} else {
		dashboardService = service.NewDashboardService(
			studentRepo, classRepo, departmentRepo, subjectRepo,
			catalogService, selectionService, completionService, reconcileService,
			nil, false, cfg.Dashboard.CacheTTL, logr)
	}

	var reportService *service.ReportService
	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportService = service.NewReportService(
			reportJobRepo, completionService, studentRepo, classRepo,
			fileStore, signer, metrics,
			cfg.Reports.SignedURLTTL, cfg.Reports.WorkerConcurrency, cfg.Reports.WorkerRetries, logr)
		reportService.Start(ctx)
		defer reportService.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Reports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					reportService.Cleanup(ctx)
				}
			}
		}()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Departments: handler.NewDepartmentHandler(departmentService),
		Classes:     handler.NewClassHandler(classService, batchService),
		Subjects:    handler.NewSubjectHandler(subjectService, catalogService),
		Students:    handler.NewStudentHandler(studentService, cfg.Imports.Enabled),
		Selections:  handler.NewSelectionHandler(selectionService, eligibilityService, studentService, classService),
		Submissions: handler.NewSubmissionHandler(submissionService, dashboardService),
		Dashboards:  handler.NewDashboardHandler(dashboardService, classService),
		Metrics:     metricsHandler,
	}
	if reportService != nil {
		handlers.Reports = handler.NewReportHandler(reportService)
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authService)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
