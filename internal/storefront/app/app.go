package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/cedarmarket/storefront/internal/storefront/http"
	"github.com/cedarmarket/storefront/internal/storefront/mailer"
	"github.com/cedarmarket/storefront/internal/storefront/obs"
	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/cedarmarket/storefront/internal/storefront/store/drivers/redisotp"
	"github.com/cedarmarket/storefront/internal/storefront/store/drivers/sqlite"
	"github.com/cedarmarket/storefront/pkg/cryptox"
	"github.com/cedarmarket/storefront/pkg/sessiontoken"
	"github.com/cedarmarket/storefront/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the storefront auth service with all its
// dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	rdb   *redis.Client
	otps  store.OTPs
	codec *sessiontoken.Codec

	// Services
	authService         *service.AuthService
	accountService      *service.AccountService
	otpService          *service.OTPService
	gate                *service.SessionGate
	bus                 *service.BlockBus
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "storefront-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	codec, err := sessiontoken.NewCodec([]byte(cfg.TokenSecret), cfg.Issuer, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.initOTPStore()

	obs.Init()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("storefront auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down storefront auth service...")

	// Give outstanding requests a deadline for completion. Open status
	// streams end when their request contexts are cancelled by the server
	// shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.rdb.Close(); err != nil {
		app.logger.Error("error closing redis client", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("storefront auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initOTPStore connects the Redis-backed OTP ledger.
func (app *Application) initOTPStore() {
	app.rdb = redis.NewClient(&redis.Options{
		Addr: app.cfg.RedisAddr,
		DB:   app.cfg.RedisDB,
	})
	app.otps = redisotp.NewStore(app.rdb)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	var mail mailer.Mailer
	if app.cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Addr: app.cfg.SMTPAddr,
			From: app.cfg.SMTPFrom,
		})
	} else {
		app.logger.Warn("SMTP_ADDR not set, one-time codes go to the log")
		mail = &mailer.LogMailer{Logger: app.logger}
	}

	app.otpService = &service.OTPService{
		OTPs:   app.otps,
		Users:  app.db.Users(),
		Audit:  app.db.AuditLog(),
		Mailer: mail,
		TTL:    app.cfg.OTPTTL,
	}

	app.bus = service.NewBlockBus(app.logger)
	app.gate = &service.SessionGate{Codec: app.codec, Users: app.db.Users()}
	app.authService = &service.AuthService{Store: app.db, Codec: app.codec}
	app.accountService = &service.AccountService{
		Store: app.db,
		OTP:   app.otpService,
		Bus:   app.bus,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AuditRetention,
	)
}

// initHTTP wires the router and the HTTP server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.cfg.Env != "dev",
		app.cfg.StreamHeartbeat,
		app.db,
		app.otps,
		app.logger,
	)
	router.AuthService = app.authService
	router.AccountService = app.accountService
	router.OTPService = app.otpService
	router.Gate = app.gate
	router.Bus = app.bus
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
