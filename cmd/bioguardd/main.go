package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/eliziario/bioguard/internal/biometrics"
	"github.com/eliziario/bioguard/internal/config"
	"github.com/eliziario/bioguard/internal/platform"
	"github.com/eliziario/bioguard/internal/prefs"
	"github.com/eliziario/bioguard/pkg/api"
)

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "/tmp"
	}

	logDir := filepath.Join(homeDir, ".config", "bioguard", "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		logDir = "/tmp"
	}

	logger.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "bioguardd.log"),
		MaxSize:    cfg.Settings.Logging.MaxSizeMB,
		MaxBackups: cfg.Settings.Logging.MaxBackups,
		MaxAge:     cfg.Settings.Logging.MaxAgeDays,
		Compress:   true,
	})

	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	level, err := logrus.ParseLevel(cfg.Settings.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func main() {
	address := flag.String("address", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *address != "" {
		cfg.Settings.Server.Address = *address
	}

	logger := setupLogger(cfg)

	backend, err := platform.New(platform.Config{
		PolkitActionID:  cfg.Settings.Polkit.ActionID,
		PolkitActionDir: cfg.Settings.Polkit.ActionDir,
	})
	if err != nil {
		// Unrecognized platform is a configuration error; nothing to retry.
		logger.Fatalf("Failed to select biometric backend: %v", err)
	}

	prefsPath, err := prefs.DefaultPath()
	if err != nil {
		logger.Fatalf("Failed to locate preference store: %v", err)
	}
	store, err := prefs.Open(prefsPath)
	if err != nil {
		logger.Fatalf("Failed to open preference store: %v", err)
	}

	manager := biometrics.NewManager(backend, store, cfg.Settings.PromptReason)
	server := api.NewServer(manager, logger, cfg.Settings.Server.Address)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("bioguardd starting")
	if err := server.Run(ctx); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Info("bioguardd stopped")
}
