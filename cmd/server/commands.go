package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/phrazzld/tasker-api/internal/platform/postgres"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the deadline sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadAppConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}

			app, err := newApplication(cfg, logger, db)
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			return app.Run(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [command]",
		Short: "Run database migrations",
		Long: `Run a goose command against the configured database using the
migrations embedded in the binary. The default command is "up".

Examples:
  tasker migrate
  tasker migrate status
  tasker migrate down`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, logger, err := loadAppConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := openDatabase(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return postgres.Migrate(ctx, db, command, logger)
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweeper pass and exit",
		Long: `Expire overdue tasks and send due-soon reminders once, exactly as one
timer tick of a running server would. Safe to run alongside servers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadAppConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := openDatabase(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}

			app, err := newApplication(cfg, logger, db)
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			// Drains queued reminders before exiting.
			defer app.cleanup()

			res, err := app.sweeper.Tick(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d task(s), queued %d reminder(s)\n", res.Expired, res.Reminded)
			return nil
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for seeding users",
		Long: `Print a bcrypt hash of the given password. Without an argument the
password is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd, args)
			if err != nil {
				return err
			}

			hash, err := auth.NewBcryptVerifier(cost).Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
	return cmd
}

func passwordArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
