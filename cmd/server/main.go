package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/me/pbadmin/internal/auth"
	"github.com/me/pbadmin/internal/config"
	"github.com/me/pbadmin/internal/dataprovider"
	"github.com/me/pbadmin/internal/logging"
	"github.com/me/pbadmin/internal/metrics"
	"github.com/me/pbadmin/internal/server"
	"github.com/me/pbadmin/internal/session"
	"github.com/me/pbadmin/internal/store"
	"github.com/me/pbadmin/pkg/pocketbase"
)

func main() {
	cfg := config.DefaultServerConfig()

	var flags config.ServerConfig
	flag.StringVar(&flags.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&flags.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&flags.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&flags.DBPath, "db", cfg.DBPath, "Session database path (default ~/.pbadmin/pbadmin.db)")
	flag.StringVar(&flags.PocketBaseURL, "pocketbase", cfg.PocketBaseURL, "PocketBase URL (or POCKETBASE_URL env)")
	flag.StringVar(&flags.AuthCollection, "collection", cfg.AuthCollection, "Auth collection used by login")
	flag.DurationVar(&flags.RequestTimeout, "timeout", cfg.RequestTimeout, "PocketBase request timeout")
	flag.IntVar(&flags.MaxRetries, "retries", cfg.MaxRetries, "Retries for idempotent PocketBase calls")
	origins := flag.String("allowed-origins", "", "Comma-separated origins echoed by CORS (or PBADMIN_ALLOWED_ORIGINS env)")
	configFile := flag.String("config", "", "Path to YAML config file")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	// Precedence: defaults, config file, environment, explicit flags.
	if *configFile != "" {
		if err := config.LoadFile(&cfg, *configFile); err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}
	config.ApplyEnv(&cfg)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = flags.Addr
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "log-format":
			cfg.LogFormat = flags.LogFormat
		case "db":
			cfg.DBPath = flags.DBPath
		case "pocketbase":
			cfg.PocketBaseURL = flags.PocketBaseURL
		case "collection":
			cfg.AuthCollection = flags.AuthCollection
		case "timeout":
			cfg.RequestTimeout = flags.RequestTimeout
		case "retries":
			cfg.MaxRetries = flags.MaxRetries
		case "allowed-origins":
			cfg.AllowedOrigins = config.SplitList(*origins)
		}
	})
	if *debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Resolve database path.
	dbPath := cfg.DBPath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".pbadmin")
		if err := os.MkdirAll(dir, 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		dbPath = filepath.Join(dir, "pbadmin.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", dbPath)

	// Pick up a session saved by a previous run.
	sessions := session.New(st, pocketbase.TokenValid, logger)
	if ok, err := sessions.Restore(context.Background()); err != nil {
		logger.Warn("saved session unreadable, starting logged out", "error", err)
	} else if ok {
		logger.Info("session restored", "user", sessions.Record().ID())
	}

	pbConfig := pocketbase.DefaultConfig().
		WithBaseURL(cfg.PocketBaseURL).
		WithTimeout(cfg.RequestTimeout).
		WithRetries(cfg.MaxRetries, pocketbase.DefaultRetryDelay)
	pb := pocketbase.NewClient(pbConfig, sessions, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	provider := dataprovider.New(pb, dataprovider.WithLogger(logger), dataprovider.WithMetrics(m))
	authAdapter := auth.New(pb, sessions,
		auth.WithCollection(cfg.AuthCollection),
		auth.WithLogger(logger),
		auth.WithMetrics(m),
	)

	srv := server.New(cfg, provider, authAdapter, logger,
		server.WithStore(st),
		server.WithMetrics(m, registry),
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "pocketbase", cfg.PocketBaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
