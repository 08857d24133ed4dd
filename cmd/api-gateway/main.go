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
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/noah-isme/clinic-admin-api/api/swagger"
	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/middleware"
	"github.com/noah-isme/clinic-admin-api/internal/repository"
	"github.com/noah-isme/clinic-admin-api/internal/service"
	"github.com/noah-isme/clinic-admin-api/pkg/cache"
	"github.com/noah-isme/clinic-admin-api/pkg/config"
	"github.com/noah-isme/clinic-admin-api/pkg/database"
	"github.com/noah-isme/clinic-admin-api/pkg/events"
	"github.com/noah-isme/clinic-admin-api/pkg/jobs"
	"github.com/noah-isme/clinic-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/clinic-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/clinic-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/clinic-admin-api/pkg/storage"
	"github.com/noah-isme/clinic-admin-api/pkg/tracing"
	"github.com/noah-isme/clinic-admin-api/pkg/validation"
)

// @title Clinic Admin API
// @version 1.0.0
// @description Multi-tenant clinic administration: appointments calendar, finance, clinical records and exports.
// @BasePath /api/v1
// @schemes http https
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

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
	logr.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(ctx, cfg.Redis); err != nil {
		logr.Warn("redis unavailable, cache and login rate limit disabled", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validation.New()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Calendar.CacheTTL, logr, redisClient != nil)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AppointmentTopic, logr)
		logr.Info("appointment events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.AppointmentTopic))
	}
	defer publisher.Close()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	salaryRepo := repository.NewSalaryRepository(db)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "clinic-admin-api",
	})
	navigationSvc, err := service.NewNavigationService(cfg.Navigation.File, logr)
	if err != nil {
		return fmt.Errorf("navigation: %w", err)
	}

	deps := routeDeps{
		cfg:          cfg,
		logger:       logr,
		metrics:      metrics,
		audit:        auditRepo,
		auth:         authSvc,
		users:        service.NewUserService(userRepo, auditRepo, validate, logr),
		navigation:   navigationSvc,
		currencies:   service.NewCurrencyService(repository.NewCurrencyRepository(db), validate, logr),
		prices:       service.NewServicePriceService(repository.NewServicePriceRepository(db), validate, logr),
		salaries:     service.NewSalaryService(salaryRepo, validate, logr),
		invoices:     service.NewInvoiceService(invoiceRepo, validate, logr),
		prescription: service.NewPrescriptionService(repository.NewPrescriptionRepository(db), validate, logr),
		labResults:   service.NewLabResultService(repository.NewLabResultRepository(db), validate, logr),
		appointments: service.NewAppointmentService(appointmentRepo, cacheSvc, publisher, metrics, validate, logr, service.AppointmentServiceConfig{
			Layout:   calendar.DefaultLayout(),
			CacheTTL: cfg.Calendar.CacheTTL,
			Clock:    calendar.SystemClock,
		}),
	}
	if redisClient != nil {
		deps.loginLimiter = middleware.NewRateLimiter(redisClient, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow, "login", logr)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			return fmt.Errorf("export storage: %w", err)
		}
		generator := service.NewExportService(service.ExportSources{
			Appointments: appointmentRepo,
			Invoices:     invoiceRepo,
			Salaries:     salaryRepo,
		}, files, storage.NewSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL), service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr)

		// worker is assigned before the queue starts.
		var worker *service.ExportWorker
		queue := jobs.NewQueue("exports", func(ctx context.Context, job jobs.Job) error {
			return worker.Handle(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			DeadLetter: func(ctx context.Context, job jobs.Job, cause error) {
				worker.DeadLetter(ctx, job, cause)
			},
			Logger: logr,
		})
		exportJobs := service.NewExportJobService(repository.NewExportRepository(db), queue, generator, metrics, validate, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})
		worker = service.NewExportWorker(exportJobs, generator, logr)
		deps.exports = exportJobs

		queue.Start(groupCtx)
		if n := exportJobs.RecoverPendingJobs(groupCtx); n > 0 {
			logr.Info("recovered export jobs", zap.Int("count", n))
		}
		exportJobs.StartCleanup(groupCtx)
		group.Go(func() error {
			<-groupCtx.Done()
			queue.Stop()
			return nil
		})
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(reqidmiddleware.Middleware())
	engine.Use(logger.GinMiddleware(logr))
	engine.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	engine.Use(middleware.Metrics(metrics))
	engine.Use(middleware.WithResponseMeta())
	registerRoutes(engine, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(engine, "clinic-admin-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
