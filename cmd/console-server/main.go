package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medbook/console/internal/config"
	"github.com/medbook/console/internal/console"
	"github.com/medbook/console/internal/platform/apiclient"
	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/platform/db"
	"github.com/medbook/console/internal/platform/middleware"
	"github.com/medbook/console/internal/platform/notification"
	"github.com/medbook/console/internal/platform/websocket"
	"github.com/medbook/console/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "console-server",
		Short: "Clinic staff console server",
	}

	var envFile string
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Extra .env file to load before reading configuration")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(activityCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the console server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <jwt>",
		Short: "Decode a bearer token and show which areas admit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectToken(cmd.OutOrStdout(), args[0], time.Now())
		},
	})
	return cmd
}

func activityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Activity log database",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the activity log tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show activity log migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	var limit int
	recent := &cobra.Command{
		Use:   "recent <subject>",
		Short: "List the latest recorded notifications of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			items, err := notification.NewPGSink(pool).Recent(ctx, args[0], limit)
			if err != nil {
				return err
			}
			printActivity(cmd.OutOrStdout(), items)
			return nil
		},
	}
	recent.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")
	cmd.AddCommand(recent)
	return cmd
}

func printActivity(w io.Writer, items []notification.Notification) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no activity recorded")
		return
	}
	for _, n := range items {
		fmt.Fprintf(w, "%s  %-7s %-24s %s\n", n.CreatedAt.UTC().Format(time.RFC3339), n.Level, n.Action, n.Message)
	}
}

// inspectToken prints the decoded claims of raw and the console areas whose
// gate would admit it.
func inspectToken(w io.Writer, raw string, now time.Time) error {
	sess, err := auth.DecodeToken(raw)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "subject: %s\n", orNone(sess.Subject))
	fmt.Fprintf(w, "email:   %s\n", orNone(sess.Email))
	fmt.Fprintf(w, "roles:   %s\n", orNone(strings.Join(sess.Roles, ", ")))
	switch {
	case sess.ExpiresAt.IsZero():
		fmt.Fprintln(w, "expires: never")
	case sess.Expired(now):
		fmt.Fprintf(w, "expires: %s (expired)\n", sess.ExpiresAt.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(w, "expires: %s\n", sess.ExpiresAt.UTC().Format(time.RFC3339))
	}

	var admitted []string
	for _, p := range auth.Portals {
		if sess.HasRole(p.GateRoles...) {
			admitted = append(admitted, p.BasePath)
		}
	}
	fmt.Fprintf(w, "admits:  %s\n", orNone(strings.Join(admitted, ", ")))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func newLogger(dev bool, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if dev {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		logger = logger.Level(lvl)
	}
	return logger
}

func runServer() error {
	// Logger
	logger := newLogger(os.Getenv("ENV") == "development", os.Getenv("LOG_LEVEL"))

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg.IsDev(), cfg.LogLevel)

	ctx := context.Background()

	// Logout revocations
	var revocations auth.RevocationStore
	if cfg.RedisURL != "" {
		rs, err := auth.NewRedisRevocationStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		revocations = rs
		logger.Info().Msg("using redis for token revocation")
	} else {
		revocations = auth.NewMemoryRevocationStore()
	}
	defer revocations.Close()

	// Activity log
	var (
		pool     *pgxpool.Pool
		recorder notification.Recorder
	)
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		n, err := db.NewMigrator(pool).Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("activity log migration failed")
		}
		logger.Info().Int("applied", n).Msg("connected to activity log database")

		dispatcher := notification.NewDispatcher(notification.NewPGSink(pool), 256, logger)
		defer dispatcher.Close()
		recorder = dispatcher
	}

	// Upstream and sessions
	client := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, apiclient.WithLogger(logger))
	repos := store.NewHTTPRepos(client)
	hub := websocket.NewHub(logger)

	regCfg := store.RegistryConfig{
		Repos:     repos,
		History:   cfg.NotificationHistory,
		IdleTTL:   cfg.SessionIdleTTL,
		Logger:    logger,
		Publisher: hub,
	}
	if recorder != nil {
		regCfg.Recorder = recorder
	}
	registry := store.NewRegistry(regCfg)
	defer registry.Close()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = console.NewValidator()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.CookieSecure))
	e.Use(middleware.BodyLimit("1M", "25M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	handler := console.NewHandler(console.Config{
		Registry:     registry,
		Accounts:     console.NewAccountsHTTP(client),
		Doctors:      repos.Doctors,
		Revocations:  revocations,
		Topics:       hub,
		Logger:       logger,
		CookieSecure: cfg.CookieSecure,
		Throttle:     middleware.RateLimit(middleware.DefaultRateLimitConfig()),
	})
	stream := websocket.NewHandler(hub, console.SessionTopic, cfg.CORSOrigins, logger)
	handler.RegisterRoutes(e, auth.GateConfig{Revocations: revocations, Logger: logger}, stream.Connect)

	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// Graceful shutdown
	go func() {
		addr := cfg.Addr()
		logger.Info().Str("addr", addr).Str("upstream", cfg.APIBaseURL).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
