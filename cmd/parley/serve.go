package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/cli"
	api "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP turn API",
	Long: `Serves the turn API (see /openapi.yaml) and, on a separate address,
Prometheus metrics at /metrics. An empty --metrics-addr disables metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, backend, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer backend.Close()

		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("metrics-addr") {
			cfg.HTTP.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
		}

		reg := prometheus.NewRegistry()
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))

		engine, err := cli.BuildEngine(cfg, backend, logger, parley.WithLifecycleHooks(hooks))
		if err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		handler, err := api.NewServer(engine,
			api.WithLogger(logger),
			api.WithMaxInputSize(cfg.MaxInputSize),
		).Handler(sigCtx)
		if err != nil {
			return fmt.Errorf("error building api: %w", err)
		}

		servers := []*http.Server{{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}}
		if cfg.HTTP.MetricsAddr != "" {
			servers = append(servers, &http.Server{
				Addr:              cfg.HTTP.MetricsAddr,
				Handler:           metricsMux(reg),
				ReadHeaderTimeout: 10 * time.Second,
			})
		}

		g, ctx := errgroup.WithContext(sigCtx)
		for _, srv := range servers {
			g.Go(func() error {
				logger.Info("listening", "address", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		}
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			var errs []error
			for _, srv := range servers {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					errs = append(errs, fmt.Errorf("graceful shutdown of %s did not complete: %w", srv.Addr, err))
					_ = srv.Close()
				}
			}
			return errors.Join(errs...)
		})

		err = g.Wait()
		if sig := sigCtx.Signal(); sig != nil {
			logger.Info("parley server stopped", "signal", sig.String())
		}
		return err
	},
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler(reg))
	return mux
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address for the turn API")
	serveCmd.Flags().String("metrics-addr", ":9090", "Address for /metrics")
}
