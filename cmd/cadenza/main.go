package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"cadenza/internal/admin"
	"cadenza/internal/chat"
	"cadenza/internal/config"
	"cadenza/internal/identity"
	"cadenza/internal/media"
	"cadenza/internal/metadata"
	"cadenza/internal/presence"
	"cadenza/internal/realtime"
	"cadenza/internal/server"
	"cadenza/internal/store"
	"cadenza/internal/tunnel"
)

const startupTimeout = 30 * time.Second

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}
	applyLoggingConfig(logger, cfg)

	// Connect the document store and ensure the unique email index
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	st, err := store.NewStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		cancel()
		logger.WithError(err).Fatal("Error connecting to document store")
	}
	if err := st.Bootstrap(ctx); err != nil {
		cancel()
		logger.WithError(err).Fatal("Error bootstrapping document store")
	}
	cancel()
	defer st.Close(context.Background())

	// Media host and the compensating cleanup queue
	host, err := media.NewCloudinary(cfg.Cloudinary)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing media host")
	}
	cleanup := media.NewCleanup(host, logger)

	// Identity, presence, messaging, real-time gateway
	verifier := identity.NewVerifier(cfg.Clerk, cfg.Admin.Email, logger)
	registry := presence.NewRegistry()
	messaging := chat.NewService(st, logger)
	gateway := realtime.NewGateway(registry, messaging, logger)

	// Admin content workflow with the audio probe
	probe := metadata.NewProbe(logger)
	workflow := admin.NewWorkflow(st, host, cleanup, probe, logger)

	srv := server.NewServer(cfg, st, workflow, verifier, gateway, logger)

	// Optional public tunnel
	tun, err := tunnel.NewService(&cfg.Tunnel, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing tunnel")
	}
	if tun != nil {
		if err := tun.Start(context.Background(), "http://"+cfg.GetAddress()); err != nil {
			logger.WithError(err).Warn("Could not start tunnel")
		} else {
			defer tun.Stop()
		}
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		if err != nil {
			logger.WithError(err).Fatal("Server failed")
		}
	case <-c:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Error during server shutdown")
	}

	// Give in-flight media cleanup jobs a chance to finish
	cleanup.Wait()

	logger.Info("Shutdown complete")
}

// applyLoggingConfig switches the startup logger to the configured level and
// format.
func applyLoggingConfig(logger *logrus.Logger, cfg *config.Config) {
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
