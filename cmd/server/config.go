package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

// loadAppConfig loads configuration from the --config file (if given) and
// the environment, then sets up the default logger from it.
func loadAppConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read --config flag: %w", err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"environment", cfg.Server.Environment)
	l.Debug("Email configuration", "smtp_enabled", cfg.Email.Enabled())

	return cfg, l, nil
}
