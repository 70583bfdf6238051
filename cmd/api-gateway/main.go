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

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/anubhav0108/timetable-ace-api/api/swagger"
	"github.com/anubhav0108/timetable-ace-api/internal/generator"
	"github.com/anubhav0108/timetable-ace-api/internal/handler"
	internalmiddleware "github.com/anubhav0108/timetable-ace-api/internal/middleware"
	"github.com/anubhav0108/timetable-ace-api/internal/models"
	"github.com/anubhav0108/timetable-ace-api/internal/repository"
	"github.com/anubhav0108/timetable-ace-api/internal/service"
	"github.com/anubhav0108/timetable-ace-api/pkg/cache"
	"github.com/anubhav0108/timetable-ace-api/pkg/config"
	"github.com/anubhav0108/timetable-ace-api/pkg/database"
	"github.com/anubhav0108/timetable-ace-api/pkg/jobs"
	"github.com/anubhav0108/timetable-ace-api/pkg/logger"
	corsmiddleware "github.com/anubhav0108/timetable-ace-api/pkg/middleware/cors"
	reqidmiddleware "github.com/anubhav0108/timetable-ace-api/pkg/middleware/requestid"
	appsentry "github.com/anubhav0108/timetable-ace-api/pkg/sentry"
	"github.com/anubhav0108/timetable-ace-api/pkg/storage"
)

// @title Timetable Ace API
// @version 1.0.0
// @description Session-scoped timetable planning backed by an external LLM generator
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const workspaceSweepInterval = 5 * time.Minute

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

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := appsentry.Initialize(cfg.Sentry, cfg.Env); err != nil {
		logr.Sugar().Warnw("sentry disabled", "error", err)
	}
	defer appsentry.Flush(2 * time.Second)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := repository.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	readiness := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	var workspaceRepo interface {
		Create(ctx context.Context, ws *models.Workspace, ttl time.Duration) error
		Get(ctx context.Context, sessionID string) (*models.Workspace, error)
		Update(ctx context.Context, sessionID string, fn repository.WorkspaceMutator) (*models.Workspace, error)
		Delete(ctx context.Context, sessionID string) error
	}
	var memoryWorkspaces *repository.MemoryWorkspaceRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		redisRepo := repository.NewRedisWorkspaceRepository(client, logr)
		defer redisRepo.Close() //nolint:errcheck
		workspaceRepo = redisRepo
		readiness["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		memoryWorkspaces = repository.NewMemoryWorkspaceRepository()
		workspaceRepo = memoryWorkspaces
		logr.Sugar().Infow("redis disabled; workspaces kept in memory")
	}

	workspaceCfg := service.WorkspaceServiceConfig{TTL: cfg.Session.TTL}
	if cfg.Session.SeedFile != "" {
		seed, constraints, err := service.LoadSeed(cfg.Session.SeedFile)
		if err != nil {
			return fmt.Errorf("load dataset seed: %w", err)
		}
		workspaceCfg.Seed = seed
		workspaceCfg.Constraints = constraints
	}

	location, err := time.LoadLocation(cfg.Exports.Timezone)
	if err != nil {
		logr.Sugar().Warnw("unknown timezone, using UTC", "timezone", cfg.Exports.Timezone, "error", err)
		location = time.UTC
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	reporter := appsentry.NewReporter()

	auditRepo := repository.NewAuditRepository(db)
	runRepo := repository.NewGenerationRunRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	workspaceSvc := service.NewWorkspaceService(workspaceRepo, validate, logr, workspaceCfg)
	auditSvc := service.NewAuditService(auditRepo, validate, logr)
	authSvc := service.NewAuthService(workspaceSvc, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AccessCodeHash:    cfg.Session.AccessCodeHash,
	})

	var (
		timetableGen generator.TimetableGenerator
		suggester    generator.FacultySuggester
		providerName string
	)
	client, err := generator.New(ctx, cfg.Generator, metricsSvc, logr)
	if err != nil {
		logr.Sugar().Warnw("timetable generator unavailable", "error", err)
	} else {
		timetableGen = client
		suggester = client
		providerName = client.Name()
	}

	timetableSvc := service.NewTimetableService(workspaceSvc, timetableGen, runRepo, auditSvc, metricsSvc, reporter, validate, logr, service.TimetableServiceConfig{
		Timeout:       cfg.Generator.Timeout,
		MaxConcurrent: cfg.Generator.MaxConcurrent,
		ProviderName:  providerName,
	})
	editSvc := service.NewEditService(workspaceSvc, suggester, auditSvc, metricsSvc, validate, logr, cfg.Generator.Timeout)
	exportSvc := service.NewExportService(workspaceSvc, service.NewMaterialRegistry(), metricsSvc, validate, logr, service.ExportConfig{Location: location})

	store, err := newObjectStore(ctx, cfg.Exports)
	if err != nil {
		return err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	worker := service.NewExportWorker(exportJobRepo, workspaceSvc, exportSvc, store, signer, metricsSvc, cfg.APIPrefix, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		OnGiveUp:   worker.GiveUp,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	exportJobSvc := service.NewExportJobService(exportJobRepo, workspaceSvc, queue, store, signer, validate, logr, service.ExportJobServiceConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	if recovered := exportJobSvc.RecoverPendingJobs(ctx); recovered > 0 {
		logr.Sugar().Infow("re-queued pending export jobs", "count", recovered)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeHandlers{
		auth:      handler.NewAuthHandler(authSvc),
		workspace: handler.NewWorkspaceHandler(workspaceSvc),
		timetable: handler.NewTimetableHandler(timetableSvc),
		edit:      handler.NewEditHandler(editSvc),
		export:    handler.NewExportHandler(exportSvc, exportJobSvc),
		audit:     handler.NewAuditHandler(auditSvc),
	}, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           gzhttp.GzipHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	exportJobSvc.StartCleanup(gctx)
	g.Go(func() error {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if memoryWorkspaces != nil {
		g.Go(func() error {
			sweepWorkspaces(gctx, memoryWorkspaces, logr)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logr.Sugar().Infow("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type routeHandlers struct {
	auth      *handler.AuthHandler
	workspace *handler.WorkspaceHandler
	timetable *handler.TimetableHandler
	edit      *handler.EditHandler
	export    *handler.ExportHandler
	audit     *handler.AuditHandler
}

func registerRoutes(api *gin.RouterGroup, h routeHandlers, auth internalmiddleware.Authenticator) {
	admin := internalmiddleware.RequireRoles(models.RoleAdmin)
	staff := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleFaculty)

	api.POST("/auth/login", h.auth.Login)
	api.GET("/exports/download/:token", h.export.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(auth))

	secured.POST("/auth/logout", h.auth.Logout)
	secured.GET("/auth/me", h.auth.Me)

	secured.GET("/workspace", h.workspace.Get)
	secured.PUT("/workspace/dataset", admin, h.workspace.ReplaceDataset)
	secured.POST("/workspace/dataset/:kind/csv", admin, h.workspace.ImportCSV)
	secured.GET("/workspace/scenario", h.workspace.GetScenario)
	secured.PUT("/workspace/scenario", admin, h.workspace.UpdateScenario)
	secured.DELETE("/workspace/scenario", admin, h.workspace.ResetScenario)
	secured.GET("/workspace/constraints", h.workspace.GetConstraints)
	secured.PUT("/workspace/constraints", admin, h.workspace.UpdateConstraints)

	secured.POST("/timetable/generate", admin, h.timetable.Generate)
	secured.GET("/timetable", h.timetable.Get)
	secured.GET("/timetable/runs", admin, h.timetable.ListRuns)

	secured.POST("/timetable/edit", admin, h.edit.Begin)
	secured.GET("/timetable/edit", admin, h.edit.Get)
	secured.PATCH("/timetable/edit/entry", admin, h.edit.UpdateEntry)
	secured.POST("/timetable/edit/suggestions", staff, h.edit.Suggest)
	secured.POST("/timetable/edit/suggestions/apply", admin, h.edit.ApplySuggestion)
	secured.POST("/timetable/edit/save", admin, h.edit.Save)
	secured.POST("/timetable/edit/cancel", admin, h.edit.Cancel)
	secured.POST("/timetable/attendance", staff, h.edit.MarkAttendance)

	secured.GET("/timetable/export/:format", h.export.Export)
	secured.GET("/timetable/materials", h.export.Materials)
	secured.POST("/exports", h.export.CreateJob)
	secured.GET("/exports/:id", h.export.JobStatus)

	secured.GET("/audit-logs", admin, h.audit.List)
}

func newObjectStore(ctx context.Context, cfg config.ExportsConfig) (storage.ObjectStore, error) {
	switch cfg.Storage {
	case config.StorageS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:    cfg.S3Endpoint,
			Region:      cfg.S3Region,
			AccessKeyID: cfg.S3AccessKeyID,
			SecretKey:   cfg.S3SecretKey,
			Bucket:      cfg.S3Bucket,
			Prefix:      "exports",
		})
	case config.StorageFilesystem, "":
		return storage.NewLocalStorage(cfg.StorageDir)
	default:
		return nil, fmt.Errorf("unsupported export storage %q", cfg.Storage)
	}
}

func sweepWorkspaces(ctx context.Context, repo *repository.MemoryWorkspaceRepository, logr *zap.Logger) {
	ticker := time.NewTicker(workspaceSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := repo.Sweep(); removed > 0 {
				logr.Sugar().Debugw("expired workspaces removed", "count", removed)
			}
		}
	}
}
