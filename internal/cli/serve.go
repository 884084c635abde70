package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-adoption-marketplace/internal/adapters/changefeed/redisfeed"
	pg "pet-adoption-marketplace/internal/adapters/storage/postgres"
	"pet-adoption-marketplace/internal/adapters/storage/postgres/migrations"
	"pet-adoption-marketplace/internal/platform/config"
	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/router"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var port string
	var migrate bool

	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, migrate)
		},
	}

	c.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")
	c.Flags().BoolVar(&migrate, "migrate", false, "Apply SQL migrations before serving (requires DB_DSN)")
	return c
}

func serve(ctx context.Context, cfg config.Config, migrate bool) error {
	log := newLogger(cfg)
	opts := router.Options{Config: cfg, Log: log}

	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()

		if migrate {
			if err := migrations.Apply(ctx, db); err != nil {
				return err
			}
			log.Info("migrations applied", nil)
		}
		opts.DB = db
	} else if migrate {
		return errNoDSN
	}

	if cfg.RedisURL != "" {
		feed, err := redisfeed.Open(ctx, cfg.RedisURL, log.With(map[string]any{"module": "changefeed"}))
		if err != nil {
			return fmt.Errorf("open redis feed: %w", err)
		}
		defer feed.Close()
		opts.Feed = feed
	}

	handler, err := router.NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// sin WriteTimeout: el stream de estados es una conexión larga
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		log.Info("shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(cfg config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
}
