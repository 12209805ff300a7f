// Package rdswatch provides the reserved, disabled-by-default filesystem
// watcher that can drive structural RDS invalidation from marker files
// dropped by an external mutation source, instead of the mutating code
// path calling Invalidator directly.
package rdswatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tagrds/internal/rdslog"
	"tagrds/internal/rds"
)

// Watcher watches a marker directory for *.tag files. Each marker's
// basename, minus the .tag suffix, is the substring whose RDS_catalog
// entries are invalidated; a basename holds no '/', so a "namespace/key"
// pair cannot be named by a marker. It is debounced, so a burst of writes to the
// same marker collapses into a single invalidation.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	invalidator *rds.Invalidator
	markerDir   string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity for diagnostics.
type Stats struct {
	EventsSeen    int
	Invalidations int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// New creates a Watcher over markerDir, debouncing events by debounceDur.
func New(markerDir string, invalidator *rds.Invalidator, debounceDur time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounceDur <= 0 {
		debounceDur = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:     w,
		invalidator: invalidator,
		markerDir:   markerDir,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounceDur,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching markerDir. Non-blocking: the event loop runs in a
// goroutine until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	log := rdslog.Get(rdslog.CategoryWatcher)

	if err := os.MkdirAll(w.markerDir, 0755); err != nil {
		log.Warn("failed to create marker dir %s: %v (continuing anyway)", w.markerDir, err)
	}
	if err := w.watcher.Add(w.markerDir); err != nil {
		log.Warn("initial watch failed (dir may not exist yet): %v", err)
	} else {
		log.Info("watching marker directory: %s", w.markerDir)
	}

	go w.run(ctx)
	return nil
}

// Stop halts the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		rdslog.Get(rdslog.CategoryWatcher).Error("error closing watcher: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	log := rdslog.Get(rdslog.CategoryWatcher)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error("watch error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".tag") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	w.mu.Lock()
	w.stats.EventsSeen++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = time.Now()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	ready := make([]string, 0)
	for path, t := range w.debounceMap {
		if now.Sub(t) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.invalidateMarker(ctx, path)
	}
}

func (w *Watcher) invalidateMarker(ctx context.Context, path string) {
	tag := strings.TrimSuffix(filepath.Base(path), ".tag")
	log := rdslog.Get(rdslog.CategoryWatcher)

	if err := w.invalidator.InvalidateByTag(ctx, tag); err != nil {
		log.Error("invalidate_by_tag(%q) failed: %v", tag, err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	log.Info("invalidated catalog entries matching tag=%q (marker=%s)", tag, path)
	w.mu.Lock()
	w.stats.Invalidations++
	w.mu.Unlock()
}

// StatsSnapshot returns a copy of the watcher's current counters.
func (w *Watcher) StatsSnapshot() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}
