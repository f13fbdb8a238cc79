package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/erazemk/borrow/internal/api"
	"github.com/erazemk/borrow/internal/auth"
	"github.com/erazemk/borrow/internal/config"
	"github.com/erazemk/borrow/internal/db"
	"github.com/erazemk/borrow/internal/lending"
	"github.com/erazemk/borrow/internal/maintenance"
	"github.com/erazemk/borrow/internal/metrics"
	"github.com/erazemk/borrow/internal/store"
)

const adminName = "Administrator"

func main() {
	cfg := config.Load()

	fs := flag.NewFlagSet("borrow", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.AdminEmail, "admin-email", cfg.AdminEmail, "")
	fs.StringVar(&cfg.AdminEmail, "e", cfg.AdminEmail, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: borrow [flags]

Flags:
  -d, -db <path>            SQLite database path (default: borrow.sqlite3, env BORROW_DB)
  -a, -addr <host:port>     listen address (default: :8080, env BORROW_ADDR)
  -e, -admin-email <email>  admin login on first run (default: admin@borrow.local, env BORROW_ADMIN_EMAIL)
  -l, -log <path>           log file path (default: no file, stdout/stderr only, env BORROW_LOG)
  -h, -help                 show this help and exit

Other settings are read from the environment: BORROW_LOG_LEVEL, BORROW_LOG_FORMAT,
BORROW_TOKEN_TTL, BORROW_AUTO_LOCK, BORROW_RATE_LIMIT_GENERAL,
BORROW_RATE_LIMIT_REQUESTS, BORROW_CORS_ORIGIN, BORROW_METRICS,
BORROW_SWEEP_SCHEDULE.
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

	closeLog, err := setupLogger(cfg.LogPath, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	database, identity, err := setupDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	var collector metrics.MetricsCollector = metrics.Nop{}
	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = metrics.NewCollector(reg)
		gatherer = reg
	}

	sweeper, err := maintenance.NewSweeper(database, cfg.SweepSchedule, collector)
	if err != nil {
		return err
	}
	sweeper.Start()

	limiter := api.NewRateLimiter(api.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitRequests))

	handler := api.NewRouter(api.Deps{
		DB:          database,
		Identity:    identity,
		Lending:     lending.NewService(database, lending.Policy{AutoLock: cfg.AutoLock}, collector),
		RateLimiter: limiter,
		CORSOrigin:  cfg.CORSOrigin,
		Metrics:     collector,
		Gatherer:    gatherer,
	})

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

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		sweeper.Stop(ctx)
		limiter.Stop()
	}()

	slog.Info("server started", "addr", cfg.Addr, "auto_lock", cfg.AutoLock, "metrics", cfg.MetricsEnabled)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-stopped
	slog.Info("server stopped, closing database")
	return nil
}

// setupDatabase opens and migrates the database and builds the identity
// service. On a fresh database the admin account is created too, and if any
// step fails the new database files are removed so the next start is again a
// first run.
func setupDatabase(cfg *config.Config) (*sql.DB, *auth.Identity, error) {
	_, statErr := os.Stat(cfg.DBPath)
	firstRun := os.IsNotExist(statErr)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	identity, err := prepareDatabase(cfg, database, firstRun)
	if err != nil {
		database.Close()
		if firstRun {
			if rmErr := removeDatabaseFiles(cfg.DBPath); rmErr != nil {
				slog.Warn("failed to remove incomplete database", "path", cfg.DBPath, "error", rmErr)
			}
		}
		return nil, nil, err
	}
	return database, identity, nil
}

func prepareDatabase(cfg *config.Config, database *sql.DB, firstRun bool) (*auth.Identity, error) {
	if err := db.Migrate(database); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	version, _, err := db.SchemaVersion(database)
	if err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath, "schema_version", version)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		return nil, fmt.Errorf("getting JWT secret: %w", err)
	}
	identity := auth.NewIdentity(database, jwtSecret, cfg.TokenTTL)

	if firstRun {
		if err := initAdmin(identity, cfg.DBPath, cfg.AdminEmail); err != nil {
			return nil, err
		}
	}
	return identity, nil
}

// removeDatabaseFiles deletes a SQLite database together with its WAL and
// shared-memory files. Files that do not exist are skipped.
func removeDatabaseFiles(path string) error {
	var errs []error
	for _, name := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initAdmin creates the admin account on a fresh database and prints its
// generated password once.
func initAdmin(identity *auth.Identity, dbPath, email string) error {
	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	admin, err := identity.EnsureAdmin(context.Background(), adminName, email, password)
	if err != nil {
		return err
	}
	if admin == nil {
		return nil
	}

	printInitResult(dbPath, admin.Email, password)
	fmt.Println()
	return nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, email, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
