// Package watcher periodically recovers projects whose generation or deployment
// was interrupted, for example by a process restart.
package watcher

import (
	"context"
	"log/slog"
	"time"
)

// StaleRecoverer fails in-progress projects not updated since the cutoff
type StaleRecoverer interface {
	RecoverStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type WatcherService struct {
	recoverer    StaleRecoverer
	pollInterval time.Duration
	staleAfter   time.Duration
}

func NewWatcherService(recoverer StaleRecoverer, pollInterval, staleAfter time.Duration) *WatcherService {
	return &WatcherService{
		recoverer:    recoverer,
		pollInterval: pollInterval,
		staleAfter:   staleAfter,
	}
}

// Start runs recovery cycles until ctx is cancelled
func (w *WatcherService) Start(ctx context.Context) error {
	slog.Info("Watcher service starting",
		"poll_interval", w.pollInterval,
		"stale_after", w.staleAfter)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Run initial check immediately
	w.checkStaleProjects(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watcher service shutting down")
			return nil
		case <-ticker.C:
			w.checkStaleProjects(ctx)
		}
	}
}

func (w *WatcherService) checkStaleProjects(ctx context.Context) {
	slog.Debug("Starting stale project check cycle")

	recovered, err := w.recoverer.RecoverStale(ctx, w.staleAfter)
	if err != nil {
		// Partial failures still report the projects that were recovered
		slog.Error("Stale project check failed",
			"recovered", recovered,
			"error", err)
		return
	}

	if recovered > 0 {
		slog.Warn("Recovered stale projects", "recovered", recovered)
		return
	}
	slog.Debug("Stale project check cycle completed")
}
