package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tagrds/internal/rdswatch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <marker-dir>",
	Short: "Run the optional marker-file invalidation watcher in the foreground",
	Long: `Watches marker-dir for *.tag files and invalidates the catalog
entries whose subquery mentions the marker's basename. This is the reserved
structural invalidation path; it runs only while this command runs, and the
config's watcher.enabled and watcher.marker_dir are not read. Use Ctrl-C to
stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	markerDir := args[0]

	debounce := time.Duration(cfg.Watcher.DebounceMS) * time.Millisecond
	w, err := rdswatch.New(markerDir, invalidator, debounce)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	logger.Info("watching for invalidation markers", zap.String("dir", markerDir))
	fmt.Printf("watching %s (Ctrl-C to stop)\n", markerDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	w.Stop()
	stats := w.StatsSnapshot()
	fmt.Printf("stopped: %d event(s) seen, %d invalidation(s), %d error(s)\n",
		stats.EventsSeen, stats.Invalidations, stats.Errors)
	return nil
}
