package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lucid-arena/internal/config"
	"github.com/lucid-arena/internal/domain"
)

// ProfileLister pages through stored profiles ordered by subject
type ProfileLister interface {
	ListProfiles(ctx context.Context, after string, limit int) ([]domain.PlayerInfo, error)
}

// ProfileCacheWriter stores nickname lookups in the cache
type ProfileCacheWriter interface {
	BatchSetPlayerInfo(ctx context.Context, infos []domain.PlayerInfo) error
}

// SyncWorker periodically warms the Redis profile cache from PostgreSQL so
// nickname lookups on the game path rarely reach the database.
type SyncWorker struct {
	cache   ProfileCacheWriter
	store   ProfileLister
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	cache ProfileCacheWriter,
	store ProfileLister,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		cache:  cache,
		store:  store,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

// syncAll runs one warming cycle and logs its outcome
func (w *SyncWorker) syncAll(ctx context.Context) {
	w.logger.Info("starting sync cycle")
	startTime := time.Now()

	count, err := w.SyncAllFromDatabase(ctx)
	if err != nil {
		w.logger.Error("sync cycle failed",
			"duration", time.Since(startTime),
			"synced", count,
			"error", err,
		)
		return
	}

	w.logger.Info("sync cycle completed",
		"duration", time.Since(startTime),
		"synced", count,
	)
}

// SyncAllFromDatabase copies every stored profile into the cache, one page
// at a time, and returns how many were written.
func (w *SyncWorker) SyncAllFromDatabase(ctx context.Context) (int, error) {
	// Process in batches to avoid overwhelming the database
	batchSize := w.config.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}

	synced := 0
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return synced, err
		}

		page, err := w.store.ListProfiles(ctx, after, batchSize)
		if err != nil {
			return synced, fmt.Errorf("listing profiles after %q: %w", after, err)
		}
		if len(page) == 0 {
			break
		}

		if err := w.cache.BatchSetPlayerInfo(ctx, page); err != nil {
			return synced, fmt.Errorf("caching profiles: %w", err)
		}
		synced += len(page)
		after = page[len(page)-1].Subject

		w.logger.Debug("cached profile page", "count", len(page), "last_subject", after)

		if len(page) < batchSize {
			break
		}
	}

	return synced, nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sync cycle (useful for manual triggers)
func (w *SyncWorker) RunOnce(ctx context.Context) {
	w.syncAll(ctx)
}
