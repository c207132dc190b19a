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

	"github.com/ArowuTest/topup-callback/api/routes"
	"github.com/ArowuTest/topup-callback/internal/config"
	"github.com/ArowuTest/topup-callback/internal/handlers"
	"github.com/ArowuTest/topup-callback/internal/logger"
	"github.com/ArowuTest/topup-callback/internal/metrics"
	"github.com/ArowuTest/topup-callback/internal/repositories/store"
	"github.com/ArowuTest/topup-callback/internal/services"
	pkgjwt "github.com/ArowuTest/topup-callback/pkg/jwt"
	"github.com/ArowuTest/topup-callback/pkg/notifygateway"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Error("Error closing store", zap.Error(err))
		}
	}()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Notifications
	gateway, err := notifygateway.New(cfg.Notifier, log)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	var notifier services.Notifier = services.NopNotifier{}
	var dispatcher *services.NotificationDispatcher
	if gateway != nil {
		dispatcher = services.NewNotificationDispatcher(services.DispatcherConfig{
			Workers:   cfg.Notifier.Workers,
			QueueSize: cfg.Notifier.QueueSize,
			Timeout:   cfg.Notifier.Timeout,
		}, gateway, st.Notifications, m, log)
		notifier = dispatcher
		log.Info("Notifications enabled", zap.String("gateway", gateway.Name()))
	}

	// Services
	callbackService := services.NewCallbackService(
		services.NewSignatureVerifier(cfg.Provider, log),
		services.NewStatusNormalizer(cfg.Provider.UnknownStatusFallback),
		st.Topups,
		notifier,
		m,
		log,
	)
	requestService := services.NewRequestService(st.Topups, log)

	deps := routes.HandlerDependencies{
		CallbackHandler:     handlers.NewCallbackHandler(callbackService),
		HealthHandler:       handlers.NewHealthHandler(st.Topups, log),
		TopupHandler:        handlers.NewTopupHandler(requestService),
		NotificationHandler: handlers.NewNotificationHandler(st.Notifications),
		Metrics:             m,
		Gatherer:            prometheus.DefaultGatherer,
		Log:                 log,
	}
	if cfg.JWT.Secret != "" {
		deps.Tokens = pkgjwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	} else {
		log.Warn("jwt.secret is empty; intake API disabled")
	}

	gin.SetMode(cfg.Server.Mode)
	router := routes.SetupRouter(cfg, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("store", st.Driver),
			zap.String("signature_mode", cfg.Provider.SignatureMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if dispatcher != nil {
		if err := dispatcher.Close(shutdownCtx); err != nil {
			log.Warn("Pending notifications abandoned", zap.Error(err))
		}
	}

	log.Info("Server exiting")
	return nil
}
