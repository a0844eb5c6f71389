package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/anotes"
	source "github.com/aretw0/anotes/pkg/adapters/lifecycle"
	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/notes"
)

var metricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes to the data directory and purge the trash on schedule",
	Long: `watch keeps the registries open, reloads notes when another process
changes them and runs the trash sweeper every sweep interval.
With --metrics-addr, Prometheus metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		k, err := openKeeper(ctx, anotes.WithBackgroundSweep(true), anotes.WithMetrics(true))
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		events, err := k.Watch(ctx, "*")
		if err != nil {
			fatal("Failed to watch data directory", err)
		}
		src := source.NewSource(events)
		if err := src.Start(ctx); err != nil {
			fatal("Failed to start watcher", err)
		}

		if metricsAddr != "" {
			serveMetrics(ctx, metricsAddr)
		}

		slog.Info("watching", "path", k.Path(), "retention_days", cfg.Trash.RetentionDays, "sweep_interval", cfg.Trash.SweepInterval)
		for e := range src.Events() {
			fmt.Println(e.String())
			if ce, ok := e.(core.Event); !ok || ce.Key != notes.NotesKey {
				continue
			}
			if err := k.Notes.Reload(ctx); err != nil {
				slog.Error("failed to reload notes", "error", err)
			}
		}
		<-k.Sweeper.Done()
	},
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		slog.Error("metrics server stopped", "error", err)
	}))
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}
