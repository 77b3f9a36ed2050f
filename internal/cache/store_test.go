package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pipedesk/clientsync/internal/storage"
)

var errNetwork = errors.New("network down")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(Config{DefaultStaleTime: 30 * time.Second}, nil, nil)
}

func fetchValue(v any) FetchFunc {
	return func(ctx context.Context) (any, error) { return v, nil }
}

func fetchError(err error) FetchFunc {
	return func(ctx context.Context) (any, error) { return nil, err }
}

func TestQuery_FetchesOnMiss(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Query(context.Background(), "contact:42", fetchValue(map[string]any{"name": "Jane"}), 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	data := res.Data.(map[string]any)
	if data["name"] != "Jane" {
		t.Errorf("Data[name] = %v, want %q", data["name"], "Jane")
	}
	if res.Stale {
		t.Error("fresh fetch should not be stale")
	}
}

func TestQuery_StalenessWindow(t *testing.T) {
	s := newTestStore(t)

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	staleTime := 30 * time.Second

	s.now = func() time.Time { return t0 }
	var fetches atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		fetches.Add(1)
		return map[string]any{"name": "Jane"}, nil
	}

	if _, err := s.Query(context.Background(), "contact:42", fetch, staleTime); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}

	// Just inside the window: served from cache.
	s.now = func() time.Time { return t0.Add(staleTime - time.Millisecond) }
	if _, err := s.Query(context.Background(), "contact:42", fetch, staleTime); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1 inside the staleness window", got)
	}

	// Just past the window: refetched.
	s.now = func() time.Time { return t0.Add(staleTime + time.Millisecond) }
	if _, err := s.Query(context.Background(), "contact:42", fetch, staleTime); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("fetches = %d, want 2 past the staleness window", got)
	}
}

func TestQuery_FailureServesLastKnown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Query(ctx, "lead:7", fetchValue("v1"), 0); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	s.Invalidate("lead:")

	res, err := s.Query(ctx, "lead:7", fetchError(errNetwork), 0)
	if err != nil {
		t.Fatalf("Query should degrade, got error: %v", err)
	}
	if res.Data != "v1" {
		t.Errorf("Data = %v, want %q", res.Data, "v1")
	}
	if !res.Stale {
		t.Error("degraded read should be marked stale")
	}
	if !errors.Is(res.FetchErr, errNetwork) {
		t.Errorf("FetchErr = %v, want errNetwork", res.FetchErr)
	}
}

func TestQuery_FailureWithNothingCached(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Query(context.Background(), "lead:7", fetchError(errNetwork), 0)
	if !errors.Is(err, errNetwork) {
		t.Errorf("err = %v, want errNetwork", err)
	}
}

func TestQuery_FailedMissLeavesNoFetcher(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Query(ctx, "lead:7", fetchError(errNetwork), 0); !errors.Is(err, errNetwork) {
		t.Fatalf("err = %v, want errNetwork", err)
	}

	s.mu.Lock()
	n := len(s.fetchers)
	s.mu.Unlock()
	if n != 0 {
		t.Errorf("fetchers = %d, want 0 after a failed first query", n)
	}

	// A successful query keeps its fetcher for the refresher.
	if _, err := s.Query(ctx, "lead:7", fetchValue("v"), 0); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	s.mu.Lock()
	n = len(s.fetchers)
	s.mu.Unlock()
	if n != 1 {
		t.Errorf("fetchers = %d, want 1 after a successful query", n)
	}
}

func TestQuery_OfflineFallback(t *testing.T) {
	dir := t.TempDir()
	persist, err := storage.Open(dir, nil)
	if err != nil {
		t.Fatalf("Open storage: %v", err)
	}

	// A previous session fetched and persisted the record.
	prev := New(DefaultConfig(), persist, nil)
	if _, err := prev.Query(context.Background(), "contact:42", fetchValue(map[string]any{"name": "Jane"}), 0); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	// A fresh session starts entirely offline.
	s := New(DefaultConfig(), persist, nil)
	res, err := s.Query(context.Background(), "contact:42", fetchError(errNetwork), 0)
	if err != nil {
		t.Fatalf("Query should fall back to storage, got error: %v", err)
	}
	data := res.Data.(map[string]any)
	if data["name"] != "Jane" {
		t.Errorf("Data[name] = %v, want %q", data["name"], "Jane")
	}
	if !res.Stale {
		t.Error("offline data should be marked stale")
	}
}

func TestQuery_Singleflight(t *testing.T) {
	s := newTestStore(t)

	var fetches atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		fetches.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Query(context.Background(), "contact:42", fetch, 0)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1 for concurrent queries of one key", got)
	}
}

func TestInvalidate_Prefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"contact:1", "contact:2", "opportunity:9"} {
		if _, err := s.Query(ctx, key, fetchValue(key), 0); err != nil {
			t.Fatalf("Query %s failed: %v", key, err)
		}
	}

	s.Invalidate("contact:")

	for _, key := range []string{"contact:1", "contact:2"} {
		res, ok := s.Peek(key)
		if !ok || !res.Stale {
			t.Errorf("%s: stale = %v, want true", key, res.Stale)
		}
	}
	if res, _ := s.Peek("opportunity:9"); res.Stale {
		t.Error("opportunity:9 should not be stale")
	}
}

func TestEvict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Query(ctx, "contact:1", fetchValue("v"), 0); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	s.Evict("contact:1")

	if _, ok := s.Peek("contact:1"); ok {
		t.Error("entry should be gone after Evict")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestObservers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var mu sync.Mutex
	var changed []string
	unreg := s.RegisterObserver(func(key string) {
		mu.Lock()
		changed = append(changed, key)
		mu.Unlock()
	})

	if _, err := s.Query(ctx, "contact:1", fetchValue("v"), 0); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	s.Invalidate("contact:")

	mu.Lock()
	n := len(changed)
	mu.Unlock()
	if n != 2 {
		t.Errorf("observer notifications = %d, want 2 (replace + invalidate)", n)
	}

	unreg()
	s.Invalidate("contact:")

	mu.Lock()
	defer mu.Unlock()
	if len(changed) != n {
		t.Error("unregistered observer must not be notified")
	}
}

func TestMutate_ErrorIncludesKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Mutate(context.Background(), "lead:7", "x", func(ctx context.Context) (any, error) {
		return nil, errNetwork
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errNetwork) {
		t.Errorf("err = %v, want wrapped errNetwork", err)
	}
	if !strings.Contains(err.Error(), "lead:7") {
		t.Errorf("err = %v, want the key in the message", err)
	}
}
