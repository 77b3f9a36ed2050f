package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// RefresherConfig holds background refresh settings.
type RefresherConfig struct {
	Interval    time.Duration // Sweep cadence
	Concurrency int           // Max concurrent refetches
	Timeout     time.Duration // Per-refetch timeout
}

// DefaultRefresherConfig returns sensible defaults.
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval:    time.Minute,
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Refresher renews stale cache entries in the background using the fetch
// functions recorded by earlier queries, so views read fresh data without
// paying the fetch latency themselves.
type Refresher struct {
	cfg    RefresherConfig
	store  *Store
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher creates a Refresher for store.
func NewRefresher(cfg RefresherConfig, store *Store, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Start begins the refresh loop.
func (r *Refresher) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("cache refresher started",
		"interval", r.cfg.Interval,
		"concurrency", r.cfg.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the refresher.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("cache refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main refresh loop.
func (r *Refresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.refreshAll()
		}
	}
}

// refreshAll refetches every stale entry concurrently, bounded by a
// semaphore.
func (r *Refresher) refreshAll() {
	start := time.Now()

	keys := r.store.staleRefreshKeys()
	if len(keys) == 0 {
		return
	}

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	var refreshed, errors atomic.Int64

	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-r.ctx.Done():
				return
			}

			ctx, cancel := context.WithTimeout(r.ctx, r.cfg.Timeout)
			defer cancel()

			if err := r.store.refreshKey(ctx, key); err != nil {
				r.logger.Debug("refresh failed", "key", key, "error", err)
				errors.Add(1)
				return
			}
			refreshed.Add(1)
		}(key)
	}

	wg.Wait()

	r.logger.Debug("refresh sweep complete",
		"stale", len(keys),
		"refreshed", refreshed.Load(),
		"errors", errors.Load(),
		"duration", time.Since(start),
	)
}

// staleRefreshKeys returns the keys that have an entry past its staleness
// window and a recorded fetch function to renew it with.
func (s *Store) staleRefreshKeys() []string {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key, spec := range s.fetchers {
		e, ok := s.entries[key]
		if !ok {
			continue
		}
		if e.stale || now.Sub(e.fetchedAt) >= spec.staleTime {
			keys = append(keys, key)
		}
	}
	return keys
}

// refreshKey refetches one key through the recorded fetcher. Concurrent
// queries for the same key share the flight.
func (s *Store) refreshKey(ctx context.Context, key string) error {
	s.mu.Lock()
	spec, ok := s.fetchers[key]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	_, err, _ := s.group.Do(key, func() (any, error) {
		v, err := spec.fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.replace(key, v)
		return v, nil
	})
	return err
}
