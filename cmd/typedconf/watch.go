package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/typedconf/internal/config/supplier"
	"github.com/dshills/typedconf/internal/config/telemetry"
	"github.com/dshills/typedconf/internal/config/watcher"
	"github.com/dshills/typedconf/internal/logging"
)

func newWatchCommand(c *cli) *cobra.Command {
	var (
		in          inputFlags
		format      string
		poll        time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Print a config file and print it again on every change",
		Long: `watch loads a config file, prints the record and keeps watching the file
and everything it includes. Each change that produces a different record is
printed; a change that fails to parse is logged and the previous record is
kept. Stops on SIGINT or SIGTERM.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatConfig && format != formatJSON {
				return fmt.Errorf("unknown format %q, expected %s or %s", format, formatConfig, formatJSON)
			}
			s, err := c.settings(cmd, &in)
			if err != nil {
				return err
			}
			reg, err := s.registry()
			if err != nil {
				return err
			}

			collector := telemetry.Noop()
			if metricsAddr != "" {
				promReg := prometheus.NewRegistry()
				pc, err := telemetry.NewPrometheusCollector(promReg)
				if err != nil {
					return err
				}
				collector = pc
				stop, err := serveMetrics(cmd.Context(), metricsAddr, promReg, logging.Component(c.log, "metrics"))
				if err != nil {
					return err
				}
				defer stop()
			}

			log := logging.Component(c.log, "supplier")
			opts := []supplier.Option{
				supplier.WithLogger(log),
				supplier.WithCollector(collector),
				supplier.WithStrict(s.strict),
			}
			if poll > 0 {
				opts = append(opts, supplier.WithWatcherOptions(watcher.WithPolling(poll)))
			}

			file, err := supplier.NewFile(c.parser(reg, s), args[0], opts...)
			if err != nil {
				return err
			}
			defer file.Close()

			var current supplier.Supplier = file
			if s.overrides.Len() > 0 {
				o, err := supplier.NewOverride(file, s.overrides, opts...)
				if err != nil {
					return err
				}
				defer o.Close()
				current = o
			}

			var mu sync.Mutex
			show := func() {
				mu.Lock()
				defer mu.Unlock()
				m, err := current.Get()
				if err != nil {
					return
				}
				if err := writeRecord(c.out, m, format); err != nil {
					log.Error().Err(err).Msg("print config")
				}
			}
			sub := current.AddListener(func(supplier.Update) { show() })
			defer sub.Unsubscribe()
			show()

			<-cmd.Context().Done()
			return nil
		},
	}

	in.register(cmd, true)
	cmd.Flags().StringVar(&format, "format", formatConfig, "output format (config or json)")
	cmd.Flags().DurationVar(&poll, "poll", 0, "poll for changes at this interval instead of using file system events")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// serveMetrics serves /metrics until stop is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log zerolog.Logger) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
