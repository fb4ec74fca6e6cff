package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

var adminInput service.SignUpInput

var rootCmd = &cobra.Command{
	Use:           "helpdesk-seed",
	Short:         "Operator tooling for the help desk database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) error {
			return persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger)
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create an approved administrator",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) error {
			identity := service.NewIdentityService(cfg.Auth, service.IdentityDependencies{
				UserRepo:          repository.NewUserRepository(pg.PoolHandle()),
				PasswordResetRepo: repository.NewPasswordResetRepository(pg.PoolHandle()),
				Logger:            logger,
			})
			user, err := identity.BootstrapAdmin(ctx, adminInput)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		})
	},
}

func init() {
	adminCmd.Flags().StringVar(&adminInput.Name, "name", "", "display name")
	adminCmd.Flags().StringVar(&adminInput.Email, "email", "", "login email")
	adminCmd.Flags().StringVar(&adminInput.Password, "password", "", "initial password")
	adminCmd.Flags().StringVar(&adminInput.Department, "department", "it", "department code")
	_ = adminCmd.MarkFlagRequired("name")
	_ = adminCmd.MarkFlagRequired("email")
	_ = adminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd, adminCmd)
}

func withDatabase(ctx context.Context, fn func(context.Context, *config.Config, *persistence.Postgres, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	return fn(ctx, cfg, pg, logger)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
