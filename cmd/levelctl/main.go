// Command levelctl runs maintenance tasks against the LevelUp database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-levelup/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-levelup/internal/config"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
	"github.com/comitanigiacomo/kanso-levelup/internal/platform/logging"
)

const Version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	envFile  string
	logLevel string
	timeout  time.Duration
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:           "levelctl",
		Short:         "Kanso LevelUp maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWithOutput(cmd.ErrOrStderr(), flags.logLevel, "development")
		},
	}

	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Optional .env file read before the environment")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", time.Minute, "Deadline for the whole command")

	cmd.AddCommand(
		migrateCmd(&flags),
		seedBadgesCmd(&flags),
		reconcileLevelsCmd(&flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "levelctl version %s\n", Version)
			},
		},
	)

	return cmd
}

// withDB loads the configuration, connects and runs fn under the command deadline.
func withDB(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, db *sqlx.DB) error) error {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DatabaseDSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	return fn(ctx, db)
}

func migrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, flags, func(ctx context.Context, db *sqlx.DB) error {
				if err := repository.EnsureSchema(ctx, db); err != nil {
					return err
				}
				log.Info("Schema is up to date")
				return nil
			})
		},
	}
}

func seedBadgesCmd(flags *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-badges",
		Short: "Insert or refresh the badge catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			badges, err := loadCatalog(file)
			if err != nil {
				return err
			}

			return withDB(cmd, flags, func(ctx context.Context, db *sqlx.DB) error {
				return seedBadges(ctx, services.NewBadgeRegistry(repository.NewPostgresBadgeRepository(db)), badges)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog (defaults to the built-in catalog)")
	return cmd
}

func loadCatalog(path string) ([]domain.Badge, error) {
	if path == "" {
		return domain.DefaultBadges(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return domain.ParseBadgeCatalog(data)
}

func seedBadges(ctx context.Context, registry *services.BadgeRegistry, badges []domain.Badge) error {
	if err := registry.Seed(ctx, badges); err != nil {
		return err
	}
	log.WithField("count", len(badges)).Info("Badge catalog seeded")
	return nil
}

func reconcileLevelsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-levels",
		Short: "Rewrite cached levels that disagree with xp",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, flags, func(ctx context.Context, db *sqlx.DB) error {
				ledger := services.NewXpLedger(repository.NewPostgresUserRepository(db), nil)
				fixed, err := ledger.Reconcile(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d level(s) corrected\n", fixed)
				return nil
			})
		},
	}
}
