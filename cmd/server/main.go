package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/orgdir/backend/docs"
	directoryapp "github.com/orgdir/backend/internal/application/directory"
	identityapp "github.com/orgdir/backend/internal/application/identity"
	"github.com/orgdir/backend/internal/domain/identity"
	"github.com/orgdir/backend/internal/infrastructure/auth"
	"github.com/orgdir/backend/internal/infrastructure/cache"
	"github.com/orgdir/backend/internal/infrastructure/config"
	"github.com/orgdir/backend/internal/infrastructure/logger"
	"github.com/orgdir/backend/internal/infrastructure/persistence"
	"github.com/orgdir/backend/internal/infrastructure/scheduler"
	"github.com/orgdir/backend/internal/infrastructure/storage"
	"github.com/orgdir/backend/internal/infrastructure/telemetry"
	"github.com/orgdir/backend/internal/interfaces/http/handler"
	"github.com/orgdir/backend/internal/interfaces/http/middleware"
	"github.com/orgdir/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Справочник
//	@version		1.0
//	@description	Справочник для Организаций и их деятельности: здания, виды деятельности, организации и поиск по ним.

//	@host		localhost:8000
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-KEY
//	@description				Static API key required on every /api/v1 route

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token issued by /auth/jwt/login. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootLog := logger.NewForEnvironment(cfg.App.Env, cfg.Log.Level, cfg.Log.Format)

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	logLevel := logger.ParseLevel(cfg.Log.Level)
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, tel.LogCore(cfg.Telemetry.ServiceName, logLevel))
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting directory service",
		zap.String("app", cfg.App.Name),
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr()),
		zap.String("db_driver", cfg.Database.Driver),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(!cfg.IsProduction()),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Migrations are postgres SQL; sqlite deployments get their schema from the models.
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	if err := telemetry.DBTracing(cfg.Telemetry, cfg.Database.Driver, log).Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, tel.Meter, telemetry.DBMetricsConfig{
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	}

	cacheFactory := cache.NewFactoryFromConfig(ctx, cfg, log)
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	var objectStorage directoryapp.ObjectStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Failed to ensure storage bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		objectStorage = s3
	} else {
		log.Info("Object storage disabled, snapshot exports are unavailable")
	}

	// Repositories
	buildingRepo := persistence.NewGormBuildingRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	phoneRepo := persistence.NewGormPhoneRepository(db.DB)
	orgRepo := persistence.NewGormOrganizationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.Auth)
	blacklist := cacheFactory.TokenBlacklist()
	policy := identity.PasswordPolicy{MinLength: cfg.Auth.PasswordLength}

	buildingService := directoryapp.NewBuildingService(buildingRepo)
	activityService := directoryapp.NewActivityService(activityRepo, cacheFactory.ActivityCache(cfg.Cache.ActivityTreeTTL), log)
	organizationService := directoryapp.NewOrganizationService(orgRepo, buildingRepo, activityRepo, phoneRepo)
	exportService := directoryapp.NewExportService(buildingRepo, activityRepo, orgRepo, objectStorage, cfg.Storage.Prefix)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, policy, log)
	userService := identityapp.NewUserService(userRepo, blacklist, policy, cfg.Auth.TokenLifetime, log)

	var directoryMetrics *telemetry.DirectoryMetrics
	if tel.Meter.IsEnabled() {
		directoryMetrics, err = telemetry.NewDirectoryMetrics(tel.Meter.Meter("directory"), log)
		if err != nil {
			log.Warn("Failed to create directory metrics", zap.Error(err))
		}
	}
	buildingService.SetMetrics(directoryMetrics)
	activityService.SetMetrics(directoryMetrics)
	organizationService.SetMetrics(directoryMetrics)
	exportService.SetMetrics(directoryMetrics)
	authService.SetMetrics(directoryMetrics)
	userService.SetMetrics(directoryMetrics)
	directoryMetrics.StartPeriodicCollection(ctx, organizationService, time.Minute)
	defer directoryMetrics.Stop()

	created, err := authService.CreateFirstSuperuser(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
	if err != nil {
		log.Fatal("Failed to create first superuser", zap.Error(err))
	}
	if created {
		log.Info("First superuser created", zap.String("email", cfg.Auth.AdminEmail))
	}

	if cfg.App.SeedData {
		seeder := directoryapp.NewSeeder(buildingRepo, activityRepo, phoneRepo, orgRepo, log)
		if err := seeder.Seed(ctx); err != nil {
			log.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	exportScheduler := scheduler.NewExportScheduler(exportService, log,
		scheduler.ExportSchedulerConfigFromStorage(cfg.Storage))
	if err := exportScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start snapshot export scheduler", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id, recovery, tracing, metrics, profiling,
	// access log, security headers, CORS, body limit, rate limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{MeterProvider: tel.Meter, Logger: log}))
	if tel.Profiler.IsEnabled() {
		engine.Use(middleware.Profiling())
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(middleware.SecurityConfig{
		HSTSEnabled: cfg.IsProduction(),
		HSTSMaxAge:  31536000,
	}))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	jwtMiddleware := middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})
	loginLimiter := middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.RateLimitWindow)
	defer loginLimiter.Stop()

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)

	// Health check and docs live outside the API key
	engine.GET("/health", systemHandler.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, jwtMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(middleware.APIKey(cfg.App.APIKey)).
		Register(router.DirectoryRoutes(router.Handlers{
			System:       systemHandler,
			Auth:         handler.NewAuthHandler(authService),
			User:         handler.NewUserHandler(userService),
			Building:     handler.NewBuildingHandler(buildingService),
			Activity:     handler.NewActivityHandler(activityService),
			Organization: handler.NewOrganizationHandler(organizationService),
			Export:       handler.NewExportHandler(exportService),
		}, router.Guards{
			Authenticated: []gin.HandlerFunc{jwtMiddleware, middleware.TracingAttributeInjector()},
			Superuser:     middleware.RequireSuperuser(),
			LoginLimit:    middleware.RateLimit(loginLimiter),
		})...).
		Setup()

	srv := &http.Server{
		Addr:           cfg.App.Addr(),
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := waitForShutdown(ctx, serverErr, log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := exportScheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Snapshot export scheduler stop failed", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	if exitCode != 0 {
		log.Error("Server exited with failure", zap.Int("exit_code", exitCode))
		_ = log.Sync()
		os.Exit(exitCode)
	}
	log.Info("Server exited gracefully")
}

// waitForShutdown blocks until the server fails or ctx is cancelled by a
// signal, and returns the process exit code.
func waitForShutdown(ctx context.Context, serverErr <-chan error, log *zap.Logger) int {
	select {
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
		return 1
	case <-ctx.Done():
		log.Info("Shutting down server...")
		return 0
	}
}
