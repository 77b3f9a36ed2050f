package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pipedesk/clientsync/internal/storage"
)

// persistNS namespaces cache entries inside the shared local store.
const persistNS = "cache/"

// FetchFunc loads a resource from the server.
type FetchFunc func(ctx context.Context) (any, error)

// CommitFunc writes a mutation to the server and returns the authoritative
// server response.
type CommitFunc func(ctx context.Context) (any, error)

// Result is what a read returns: the data plus staleness metadata. FetchErr
// is set when a refetch failed and the data served is the last known copy.
type Result struct {
	Data      any
	FetchedAt time.Time
	Stale     bool
	FetchErr  error
}

// Observer is notified with the key of any entry that changed (replaced,
// invalidated, rolled back, or evicted). UI layers adapt this to their own
// update mechanism.
type Observer func(key string)

type entry struct {
	data       any
	fetchedAt  time.Time
	stale      bool
	optimistic bool // value not yet confirmed by the server
	version    uint64
}

type refreshSpec struct {
	fetch     FetchFunc
	staleTime time.Duration
}

// Config holds cache settings.
type Config struct {
	DefaultStaleTime time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultStaleTime: 30 * time.Second,
	}
}

// Store is the key-addressed cache of fetched server resources.
type Store struct {
	cfg     Config
	persist *storage.Store // optional offline fallback, may be nil
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	version  uint64
	entries  map[string]*entry
	fetchers map[string]refreshSpec

	group singleflight.Group

	obsMu     sync.Mutex
	nextObs   int64
	observers map[int64]Observer
}

// New creates a Store. persist may be nil when no offline fallback is
// wanted (tests, ephemeral sessions).
func New(cfg Config, persist *storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultStaleTime <= 0 {
		cfg.DefaultStaleTime = DefaultConfig().DefaultStaleTime
	}

	return &Store{
		cfg:       cfg,
		persist:   persist,
		logger:    logger,
		now:       time.Now,
		entries:   make(map[string]*entry),
		fetchers:  make(map[string]refreshSpec),
		observers: make(map[int64]Observer),
	}
}

// Query returns the entry for key, fetching when absent or older than
// staleTime (0 means the configured default). A failed refetch never blanks
// the view: the last known data is served with the error attached.
func (s *Store) Query(ctx context.Context, key string, fetch FetchFunc, staleTime time.Duration) (Result, error) {
	if staleTime <= 0 {
		staleTime = s.cfg.DefaultStaleTime
	}
	now := s.now()

	s.mu.Lock()
	if e, ok := s.entries[key]; ok && !e.stale && now.Sub(e.fetchedAt) < staleTime {
		res := Result{Data: e.data, FetchedAt: e.fetchedAt}
		s.mu.Unlock()
		return res, nil
	}
	// Remember the fetcher so the background refresher can renew this key.
	s.fetchers[key] = refreshSpec{fetch: fetch, staleTime: staleTime}
	s.mu.Unlock()

	v, err, _ := s.group.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.replace(key, v)
		return v, nil
	})
	if err == nil {
		return Result{Data: v, FetchedAt: s.now()}, nil
	}

	// Degrade: serve the last known entry rather than going blank.
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		e.stale = true
		res := Result{Data: e.data, FetchedAt: e.fetchedAt, Stale: true, FetchErr: err}
		s.mu.Unlock()
		return res, nil
	}
	s.mu.Unlock()

	// Last resort: the offline copy from local storage.
	if data, at, ok := s.loadPersisted(key); ok {
		s.mu.Lock()
		s.version++
		s.entries[key] = &entry{data: data, fetchedAt: at, stale: true, version: s.version}
		s.mu.Unlock()
		s.notifyObservers(key)
		return Result{Data: data, FetchedAt: at, Stale: true, FetchErr: err}, nil
	}

	// Nothing to serve; drop the recorded fetcher so failed one-off queries
	// do not accumulate.
	s.mu.Lock()
	if _, ok := s.entries[key]; !ok {
		delete(s.fetchers, key)
	}
	s.mu.Unlock()

	return Result{}, err
}

// Peek returns the current entry without triggering a fetch.
func (s *Store) Peek(key string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Result{}, false
	}
	return Result{Data: e.data, FetchedAt: e.fetchedAt, Stale: e.stale}, true
}

// Invalidate marks every entry whose key starts with prefix as stale, so
// the next Query refetches instead of serving cached data.
func (s *Store) Invalidate(prefix string) {
	s.mu.Lock()
	var keys []string
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) {
			e.stale = true
			keys = append(keys, k)
		}
	}
	s.mu.Unlock()

	for _, k := range keys {
		s.notifyObservers(k)
	}
	if len(keys) > 0 {
		s.logger.Debug("invalidated", "prefix", prefix, "entries", len(keys))
	}
}

// Evict removes the entry outright, so stale reads cannot resurrect it.
func (s *Store) Evict(key string) {
	s.mu.Lock()
	_, existed := s.entries[key]
	delete(s.entries, key)
	delete(s.fetchers, key)
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Delete(persistNS + key); err != nil {
			s.logger.Warn("failed to evict persisted entry", "key", key, "error", err)
		}
	}
	if existed {
		s.notifyObservers(key)
	}
}

// RegisterObserver adds a change observer and returns its removal closure.
func (s *Store) RegisterObserver(fn Observer) func() {
	s.obsMu.Lock()
	s.nextObs++
	id := s.nextObs
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// replace installs a server-confirmed value for key. Entries are replaced
// whole, never mutated in place, so consumers holding an old snapshot stay
// safe.
func (s *Store) replace(key string, data any) {
	now := s.now()
	s.mu.Lock()
	s.version++
	s.entries[key] = &entry{data: data, fetchedAt: now, version: s.version}
	s.mu.Unlock()

	s.persistEntry(key, data, now)
	s.notifyObservers(key)
}

func (s *Store) notifyObservers(key string) {
	s.obsMu.Lock()
	fns := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// persistedEntry is the on-disk shape of an offline cache entry.
type persistedEntry struct {
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// persistEntry writes the server-confirmed value to local storage,
// best-effort. Optimistic values are never persisted.
func (s *Store) persistEntry(key string, data any, at time.Time) {
	if s.persist == nil {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("cannot persist entry", "key", key, "error", err)
		return
	}
	buf, err := json.Marshal(persistedEntry{Data: raw, FetchedAt: at})
	if err != nil {
		s.logger.Warn("cannot persist entry", "key", key, "error", err)
		return
	}
	if err := s.persist.Put(persistNS+key, buf); err != nil {
		s.logger.Warn("cannot persist entry", "key", key, "error", err)
	}
}

// loadPersisted reads the offline copy of key, if any.
func (s *Store) loadPersisted(key string) (any, time.Time, bool) {
	if s.persist == nil {
		return nil, time.Time{}, false
	}

	buf, ok := s.persist.Get(persistNS + key)
	if !ok {
		return nil, time.Time{}, false
	}
	var pe persistedEntry
	if err := json.Unmarshal(buf, &pe); err != nil {
		s.logger.Warn("corrupt persisted entry", "key", key, "error", err)
		return nil, time.Time{}, false
	}
	var data any
	if err := json.Unmarshal(pe.Data, &data); err != nil {
		s.logger.Warn("corrupt persisted entry", "key", key, "error", err)
		return nil, time.Time{}, false
	}
	return data, pe.FetchedAt, true
}
