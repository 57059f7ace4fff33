// Command simorgd is the HTTP daemon: it boots configuration, picks a
// storage backend, wires the session manager and maintenance scheduler,
// and serves httpapi until it receives a termination signal.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fthyco/simorg/httpapi"
	"github.com/fthyco/simorg/internal/config"
	"github.com/fthyco/simorg/persistence"
	"github.com/fthyco/simorg/persistence/postgres"
	"github.com/fthyco/simorg/pkg/logger"
	"github.com/fthyco/simorg/session"
	"github.com/fthyco/simorg/session/maintenance"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides SIMORG_HTTP_ADDR)")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (overrides SIMORG_POSTGRES_DSN; in-memory storage when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *dsn != "" {
		cfg.PostgresDSN = *dsn
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stdout"})

	store, closeStore := openStore(cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	mgr := session.NewManager(session.ManagerConfig{
		Store:           store,
		Logger:          log,
		SnapshotCadence: cfg.SnapshotCadence,
	})

	handler := httpapi.NewHandler(httpapi.Config{
		Manager:            mgr,
		JWTSecret:          cfg.JWTSecret,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		Logger:             log,
	})

	scheduler := maintenance.New(mgr, log, maintenance.Config{
		CronSpec:          cfg.MaintenanceCron,
		SnapshotRetention: session.DefaultSnapshotRetention,
	})

	rootCtx := context.Background()
	if err := scheduler.Start(rootCtx); err != nil {
		log.WithFields(map[string]interface{}{"error": err}).Fatal("failed to start maintenance scheduler")
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}

	go func() {
		log.WithFields(map[string]interface{}{"addr": cfg.HTTPAddr, "env": cfg.Env}).Info("simorgd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithFields(map[string]interface{}{"error": err}).Fatal("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.WithFields(map[string]interface{}{"error": err}).Warn("maintenance scheduler shutdown reported an error")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithFields(map[string]interface{}{"error": err}).Fatal("graceful shutdown failed")
	}
}

// openStore picks the storage backend: Postgres when a DSN is configured,
// in-memory otherwise. The returned close func is nil for in-memory.
func openStore(cfg *config.Config, log *logger.Logger) (persistence.Store, func()) {
	if cfg.PostgresDSN == "" {
		log.Info("no SIMORG_POSTGRES_DSN configured; using in-memory storage")
		return persistence.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithFields(map[string]interface{}{"error": err}).Fatal("failed to connect to postgres")
	}
	return store, func() { _ = store.Close() }
}
