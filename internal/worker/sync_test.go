package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/lucid-arena/internal/config"
	"github.com/lucid-arena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceStore struct {
	profiles []domain.PlayerInfo
	calls    int
	err      error
}

func (s *sliceStore) ListProfiles(_ context.Context, after string, limit int) ([]domain.PlayerInfo, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var page []domain.PlayerInfo
	for _, p := range s.profiles {
		if p.Subject > after {
			page = append(page, p)
		}
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
	batches int
}

func (c *mapCache) BatchSetPlayerInfo(_ context.Context, infos []domain.PlayerInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches++
	for _, info := range infos {
		c.entries[info.Subject] = info.Nickname
	}
	return nil
}

func (c *mapCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func newStore(n int) *sliceStore {
	s := &sliceStore{}
	for i := 0; i < n; i++ {
		s.profiles = append(s.profiles, domain.PlayerInfo{
			Subject:  fmt.Sprintf("sub-%03d", i),
			Nickname: fmt.Sprintf("player%d", i),
		})
	}
	sort.Slice(s.profiles, func(i, j int) bool { return s.profiles[i].Subject < s.profiles[j].Subject })
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncAllFromDatabasePages(t *testing.T) {
	store := newStore(25)
	cache := &mapCache{entries: make(map[string]string)}
	w := NewSyncWorker(cache, store, &config.SyncConfig{BatchSize: 10}, discardLogger())

	n, err := w.SyncAllFromDatabase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Equal(t, 3, cache.batches)
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, "player24", cache.entries["sub-024"])
}

func TestSyncAllFromDatabaseExactPages(t *testing.T) {
	store := newStore(20)
	cache := &mapCache{entries: make(map[string]string)}
	w := NewSyncWorker(cache, store, &config.SyncConfig{BatchSize: 10}, discardLogger())

	n, err := w.SyncAllFromDatabase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, 3, store.calls)
}

func TestSyncAllFromDatabaseError(t *testing.T) {
	store := &sliceStore{err: errors.New("db down")}
	cache := &mapCache{entries: make(map[string]string)}
	w := NewSyncWorker(cache, store, &config.SyncConfig{}, discardLogger())

	_, err := w.SyncAllFromDatabase(context.Background())
	assert.Error(t, err)
	assert.Zero(t, cache.batches)
}

func TestWorkerStartStop(t *testing.T) {
	store := newStore(3)
	cache := &mapCache{entries: make(map[string]string)}
	w := NewSyncWorker(cache, store, &config.SyncConfig{Interval: 10 * time.Millisecond, BatchSize: 100}, discardLogger())

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())

	assert.Eventually(t, func() bool { return cache.size() == 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	require.NoError(t, w.Stop())
}
