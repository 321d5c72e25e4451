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

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/manthysbr/samarth/pkg/kernel"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(true)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger := newLogger(cfg, os.Stdout)
			logger.Info("starting samarth api", "version", version, "config", cfg.Redacted())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			comps, err := buildComponents(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Close()

			spec, err := kernel.LoadAPISpec(ctx)
			if err != nil {
				return err
			}
			apiServer := kernel.NewServer(logger, comps.agent, spec, cfg.Server.MaxConcurrentQueries)
			if comps.tracer != nil {
				apiServer.WithTraces(comps.tracer)
			}

			// CORS Configuration
			c := cors.New(cors.Options{
				AllowedOrigins:   cfg.Server.AllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: true,
			})

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           c.Handler(apiServer.Handler()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gCtx := errgroup.WithContext(ctx)

			// 1. Warm the crop dataset. A failure is retried on first use.
			g.Go(func() error {
				if _, err := comps.crops.Snapshot(gCtx); err != nil {
					logger.Warn("crop dataset warm-up failed", "error", err)
				}
				return nil
			})

			// 2. Start API Server
			g.Go(func() error {
				logger.Info("starting api server", "addr", cfg.Server.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("api server failed: %w", err)
				}
				return nil
			})

			// 3. Graceful Shutdown
			g.Go(func() error {
				<-gCtx.Done()
				logger.Info("shutting down api server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
