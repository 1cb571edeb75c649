package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zaiko-app/zaiko/internal/api"
	"github.com/zaiko-app/zaiko/internal/auth"
	"github.com/zaiko-app/zaiko/internal/config"
	"github.com/zaiko-app/zaiko/internal/db"
	"github.com/zaiko-app/zaiko/internal/logging"
	"github.com/zaiko-app/zaiko/internal/store"
)

func main() {
	cfg := config.LoadServer()

	fs := flag.NewFlagSet("zaiko", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: zaiko [flags]

Flags:
  -d, -db <path>          SQLite database path (env ZAIKO_DB, default: zaiko.sqlite3)
  -a, -addr <host:port>   listen address (env ZAIKO_ADDR, default: :8080)
  -u, -user <name>        admin username on first run (env ZAIKO_ADMIN, default: admin)
  -l, -log <path>         log file path (env ZAIKO_LOG, default: stdout/stderr only)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	closeLog, err := logging.Setup(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Server) error {
	ctx := context.Background()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	password, err := bootstrapAdmin(ctx, database, cfg.AdminUser)
	if err != nil {
		return err
	}
	if password != "" {
		printBootstrapResult(cfg.DBPath, cfg.AdminUser, password)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	// Generated on first run and kept in the settings table.
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	if n, err := store.PruneRevokedTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to prune revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("pruned revoked tokens", "count", n)
	}

	handler := api.LoggingMiddleware(api.NewRouter(database, auth.NewIssuer(jwtSecret)))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-stopped
	slog.Info("server stopped, closing database")
	return nil
}
