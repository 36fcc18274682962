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

	"github.com/common-nighthawk/go-figure"
	"github.com/dom/writing-assistant/internal/api"
	"github.com/dom/writing-assistant/internal/config"
	"github.com/dom/writing-assistant/internal/gateway"
	"github.com/dom/writing-assistant/internal/logging"
	"github.com/dom/writing-assistant/internal/repository/postgres"
	"github.com/dom/writing-assistant/internal/service"
	"github.com/dom/writing-assistant/internal/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const appName = "writing assistant"

func main() {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Token-metered writing assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var skipMigrate bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), skipMigrate)
		},
	}
	serve.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on startup")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}

	root.AddCommand(serve, migrate)
	root.Flags().AddFlagSet(serve.Flags())
	root.RunE = serve.RunE

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(cfg.LogLevel, cfg.Environment)

	db, err := postgres.NewConnection(cfg.DatabaseURL, gormLogLevel(cfg))
	if err != nil {
		return nil, log, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, log, db, nil
}

func runMigrate(ctx context.Context) error {
	_, log, db, err := setup()
	if err != nil {
		return err
	}

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	log.Info().Msg("migrations applied")
	return nil
}

func runServe(ctx context.Context, skipMigrate bool) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}

	if !cfg.IsProduction() {
		figure.NewFigure(appName, "cybermedium", true).Print()
		fmt.Println()
	}

	if !skipMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	sessions, err := session.NewManager(cfg.SessionSecrets, cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	repos := postgres.NewRepositories(db)
	completions := gateway.NewClient(cfg.CompletionURL, cfg.OpenAIKey, cfg.GatewayTimeout)
	services := service.NewServices(repos, completions, cfg)
	router := api.NewRouter(services, sessions, log)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GatewayTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func gormLogLevel(cfg *config.Config) logger.LogLevel {
	if cfg.IsProduction() {
		return logger.Warn
	}
	return logger.Info
}
