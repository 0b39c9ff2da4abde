package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/taskboard/internal/api/ws"
	"github.com/gosuda/taskboard/internal/auth"
	"github.com/gosuda/taskboard/internal/board"
	"github.com/gosuda/taskboard/internal/config"
	"github.com/gosuda/taskboard/internal/server"
	"github.com/gosuda/taskboard/internal/store/postgres"
	redisstore "github.com/gosuda/taskboard/internal/store/redis"
	"github.com/gosuda/taskboard/internal/store/sqlite"
)

var Version = "dev"

func main() {
	setupLogging()

	rootCmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Local-first task board server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("taskboard failed")
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the board API (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token signed with TASKBOARD_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			return printToken(cfg, subject, ttl)
		},
	}

	cmd.Flags().String("subject", "owner", "Token subject")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to TASKBOARD_JWT_TTL)")

	return cmd
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return serve(cfg)
}

// setupLogging initializes structured logging from environment.
func setupLogging() {
	level, parseErr := zerolog.ParseLevel(os.Getenv("TASKBOARD_LOG_LEVEL"))
	if parseErr != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("TASKBOARD_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func printToken(cfg *config.Config, subject string, ttl time.Duration) error {
	if !cfg.Auth.Enabled() {
		return errors.New("TASKBOARD_JWT_SECRET is not set")
	}
	token, err := auth.IssueToken(cfg.Auth.JWTSecret, subject, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func serve(cfg *config.Config) error {
	ctx := context.Background()

	// Redis is optional unless it is the storage backend; it also carries
	// the live event feed.
	var rdb *redisstore.Client
	if cfg.Redis.Enabled() {
		client, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
	}

	slot, closeSlot, err := openSlot(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer closeSlot()

	opts := []board.Option{
		board.WithKey(cfg.Storage.Key),
		board.WithSaveTimeout(cfg.Storage.SaveTimeout),
		board.WithLoadTimeout(cfg.Storage.LoadTimeout),
	}

	var hub *ws.Hub
	if rdb != nil {
		hub = ws.NewHub(rdb)
		broadcaster := ws.NewBroadcaster(hub, cfg.Storage.SaveTimeout)
		defer broadcaster.Close()
		opts = append(opts, board.WithObserver(broadcaster.Observe))
	}

	store := board.Open(ctx, slot, opts...)
	if store.Bootstrap(cfg.Board.DefaultName) {
		log.Info().Str("name", cfg.Board.DefaultName).Msg("created default board")
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, hub)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("backend", cfg.Storage.Backend).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	shutdownErr := srv.Shutdown(shutdownCtx)

	// Flush the last snapshot even when the HTTP shutdown timed out.
	if closeErr := store.Close(shutdownCtx); closeErr != nil {
		log.Error().Err(closeErr).Msg("flush board snapshot")
	}

	if shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// openSlot opens the configured storage backend. The memory backend returns
// a nil slot, which keeps the board in memory only.
func openSlot(ctx context.Context, cfg *config.Config, rdb *redisstore.Client) (board.Slot, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		s, err := sqlite.New(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case config.BackendPostgres:
		if cfg.Database.MaxConns > math.MaxInt32 {
			return nil, nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}
		s, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.BackendRedis:
		// Closed by serve together with the pub/sub side.
		return rdb, func() {}, nil

	default:
		return nil, func() {}, nil
	}
}
