// Command wifimap serves the network map and merges uploaded WiGLE exports
// into a single master store.
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

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/wifimap/internal/api"
	"github.com/persistorai/wifimap/internal/config"
	"github.com/persistorai/wifimap/internal/db"
	"github.com/persistorai/wifimap/internal/db/migrations"
	"github.com/persistorai/wifimap/internal/dbpool"
	"github.com/persistorai/wifimap/internal/service"
	"github.com/persistorai/wifimap/internal/store"
	"github.com/persistorai/wifimap/internal/watcher"
	"github.com/persistorai/wifimap/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wifimap: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer pool.Close() //nolint:errcheck

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	st := store.NewNetworkStore(pool, log)
	hub := ws.NewHub(log)

	history := service.NewHistoryService(store.NewHistoryStore(pool, log), log)
	imports := service.NewImportService(st, hub, log, cfg.ImportTimeout).WithHistory(history)
	networks := service.NewNetworkService(st, hub, log)
	exports := service.NewExportService(st, log)

	handler := api.NewRouter(ctx, &api.RouterDeps{
		Log:            log,
		DB:             api.NewPoolChecker(pool),
		Hub:            hub,
		Imports:        imports,
		Networks:       networks,
		Notes:          networks,
		Exports:        exports,
		History:        history,
		CORSOrigins:    cfg.CORSOrigins,
		APIKey:         cfg.APIKey.Value(),
		MaxImportBytes: cfg.MaxImportBytes(),
		Version:        config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	if cfg.ImportWatchDir != "" {
		worker := service.NewImportWorker(imports, log, 0, cfg.MaxImportBytes())
		w := watcher.New(cfg.ImportWatchDir, worker, log)

		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
		g.Go(func() error {
			if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watching %s: %w", cfg.ImportWatchDir, err)
			}
			return nil
		})

		log.WithField("dir", cfg.ImportWatchDir).Info("watching for export files")
	}

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"db":      cfg.DBPath,
			"version": config.Version,
		}).Info("wifimap listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hub.Shutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if err := st.Flush(context.Background()); err != nil {
		log.WithError(err).Warn("final checkpoint")
	}

	log.Info("stopped")
	return nil
}
