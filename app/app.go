package app

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

	_ "club-notification-service/ddd/adapter/http"
	_ "club-notification-service/ddd/adapter/ws"
	"club-notification-service/ddd/application/app"
	"club-notification-service/ddd/application/dispatch"
	drepo "club-notification-service/ddd/domain/repo"
	"club-notification-service/ddd/infrastructure/database/persistence"
	"club-notification-service/ddd/infrastructure/mail"
	"club-notification-service/ddd/infrastructure/mongodb"
	"club-notification-service/internal/resource"
	"club-notification-service/pkg/assert"
	"club-notification-service/pkg/auth"
	"club-notification-service/pkg/config"
	"club-notification-service/pkg/logger"
	"club-notification-service/pkg/manager"
	"club-notification-service/pkg/middleware"
	"club-notification-service/pkg/presence"
	"club-notification-service/pkg/redisclient"
	"club-notification-service/pkg/repository"
)

const serviceName = "club-notification-service"

// Run is the entrypoint of club-notification-service.
func Run() {
	fmt.Println("[STARTUP] Starting notification service...")

	cfgPath := resolveConfigPath()
	fmt.Println("[STARTUP] Loading config file...")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	fmt.Println("[STARTUP] Initializing logger...")
	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	defer logService.Close()
	logger.Infof("Notification service starting driver=%s mode=%s", cfg.Database.Driver, cfg.Server.Mode)

	// Notification store and user directory, selected by database.driver.
	logger.Infof("Initializing notification store...")
	repo, directory, closeStore := mustInitStore(cfg)
	defer closeStore()

	// Redis is optional unless token revocation is switched on.
	var gateOpts []auth.GateOption
	if cfg.Redis.Enabled {
		logger.Infof("Initializing Redis client...")
		redisCli, err := redisclient.New(cfg.Redis)
		switch {
		case err != nil && cfg.Auth.CheckRevocation:
			logger.Fatal(fmt.Sprintf("Failed to initialize redis required for token revocation error=%v", err))
		case err != nil:
			logger.Errorf("Failed to initialize redis; continuing without it error=%v", err)
		default:
			defer func() {
				logger.Infof("Closing Redis client...")
				_ = redisCli.Close()
			}()
			resource.Register("redis", func(ctx context.Context) error { return redisCli.Raw().Ping(ctx).Err() })
			if cfg.Auth.CheckRevocation {
				gateOpts = append(gateOpts, auth.WithRevocations(auth.NewRedisRevocations(redisCli.Raw(), cfg.Auth.RevocationKey)))
			}
		}
	}

	gate := auth.NewGate(auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer), gateOpts...)
	registry := presence.NewRegistry()

	engineOpts := []dispatch.Option{
		dispatch.WithSendTimeout(cfg.Push.SendTimeout),
		dispatch.WithEmailTimeout(3 * cfg.Mail.Timeout),
	}
	if cfg.Mail.Enabled {
		logger.Infof("Email delivery enabled host=%s", cfg.Mail.GetAddr())
		sender, err := mail.NewSender(cfg.Mail, mail.NewTemplateLoader(cfg.Mail.TemplateDir), mail.NewSMTPTransport(cfg.Mail))
		if err != nil {
			logger.Fatal(fmt.Sprintf("Failed to initialize mail sender error=%v", err))
		}
		engineOpts = append(engineOpts, dispatch.WithMailer(sender, directory))
	} else {
		logger.Warnf("Email delivery disabled; notifications are pushed in real time only")
	}
	engine := dispatch.NewEngine(registry, engineOpts...)

	deps := &manager.Dependencies{
		Config:   cfg,
		App:      app.NewNotificationApp(repo, engine),
		Gate:     gate,
		Registry: registry,
		Engine:   engine,
	}
	assert.NotNil(deps.App, "notification app")

	// Create Gin engine and common middlewares.
	logger.Infof("Creating HTTP routes...")
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestContextMiddleware(),
		middleware.RequestLogMiddleware(),
	)
	router.GET("/health", healthHandler)

	// Controllers are registered by the adapter packages' init functions.
	manager.RegisterAllRoutes(router, deps)
	logger.Infof("Routes registered")

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		logger.Infof("HTTP server starting addr=%s service=%s", addr, serviceName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()

	// Wait for termination signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Received shutdown signal, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Long-lived push connections never go idle; close them so Shutdown can finish.
	logger.Infof("Closing push connections online_users=%d connections=%d",
		registry.OnlineUserCount(), registry.TotalConnectionCount())
	registry.CloseAll(ctx)

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to close error=%v", err)
	}

	drained := make(chan struct{})
	go func() {
		engine.Close()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		logger.Warnf("Shutdown timed out with deliveries in flight")
	}

	logger.Infof("Server exited safely")
}

func mustInitStore(cfg *config.Config) (drepo.NotificationRepository, drepo.UserDirectory, func()) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		mdb, err := repository.NewMongoDatabase(&cfg.Mongo)
		if err != nil {
			logger.Fatal(fmt.Sprintf("Failed to initialize mongo error=%v", err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
		defer cancel()
		assert.Nil(mongodb.EnsureIndexes(ctx, mdb.DB))
		resource.Register("mongo", func(ctx context.Context) error { return mdb.Client.Ping(ctx, nil) })
		logger.Infof("Mongo connected database=%s", cfg.Mongo.Database)

		return mongodb.NewNotificationRepository(mdb.DB), mongodb.NewUserDirectory(mdb.DB), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mdb.Close(ctx)
		}
	default:
		db, err := repository.NewDatabase(&cfg.Database)
		if err != nil {
			logger.Fatal(fmt.Sprintf("Failed to initialize database error=%v", err))
		}
		if cfg.Database.AutoMigrate {
			assert.Nil(persistence.AutoMigrate(db.Self))
		}
		resource.Register("mysql", func(ctx context.Context) error {
			sqlDB, err := db.Self.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
		logger.Infof("Database connected")

		return persistence.NewNotificationRepository(db.Self), persistence.NewUserDirectory(db.Self), db.Close
	}
}

func healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	statuses := resource.CheckAll(ctx)
	status, code := "ok", http.StatusOK
	if !resource.Healthy(statuses) {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"service":   serviceName,
		"resources": statuses,
		"timestamp": time.Now().Unix(),
	})
}

// resolveConfigPath determines which config file to use.
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if env := os.Getenv("CONFIG_ENV"); env != "" {
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
	return "configs/config.dev.yaml"
}
