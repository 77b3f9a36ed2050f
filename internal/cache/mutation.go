package cache

import (
	"context"
	"fmt"
)

// Mutate applies newValue optimistically, calls commit, and reconciles the
// entry with the server's authoritative response on success (server-derived
// fields win over the local guess). On failure the pre-mutation snapshot is
// restored exactly and the error is returned.
//
// Rollback is version-guarded: if a later mutation already replaced the
// optimistic value, the failed mutation leaves it alone instead of
// resurrecting data that was correctly overwritten.
func (s *Store) Mutate(ctx context.Context, key string, newValue any, commit CommitFunc) (any, error) {
	now := s.now()

	s.mu.Lock()
	var snapshot *entry
	if e, ok := s.entries[key]; ok {
		cp := *e
		snapshot = &cp
	}
	s.version++
	optimistic := s.version
	s.entries[key] = &entry{data: newValue, fetchedAt: now, optimistic: true, version: optimistic}
	s.mu.Unlock()

	s.notifyObservers(key)

	serverValue, err := commit(ctx)
	if err != nil {
		s.rollback(key, snapshot, optimistic)
		return nil, fmt.Errorf("commit %s: %w", key, err)
	}

	s.replace(key, serverValue)
	return serverValue, nil
}

// MutateDelete removes the entry optimistically and evicts it outright once
// the server confirms, so a stale read cannot resurrect a deleted resource.
// On failure the snapshot is restored.
func (s *Store) MutateDelete(ctx context.Context, key string, commit CommitFunc) error {
	s.mu.Lock()
	var snapshot *entry
	if e, ok := s.entries[key]; ok {
		cp := *e
		snapshot = &cp
	}
	delete(s.entries, key)
	s.mu.Unlock()

	s.notifyObservers(key)

	if _, err := commit(ctx); err != nil {
		s.mu.Lock()
		if _, ok := s.entries[key]; !ok && snapshot != nil {
			cp := *snapshot
			s.version++
			cp.version = s.version
			if cp.optimistic {
				cp.stale = true
			}
			s.entries[key] = &cp
		}
		s.mu.Unlock()
		s.notifyObservers(key)
		return fmt.Errorf("delete %s: %w", key, err)
	}

	s.Evict(key)
	return nil
}

// rollback restores the pre-mutation snapshot, unless the entry moved past
// the optimistic version in the meantime. A committed later write is
// authoritative and left alone; a later uncommitted optimistic value is not,
// so it is flagged stale for refetch. Likewise a restored snapshot that was
// itself never server-confirmed must not pass for fresh data.
func (s *Store) rollback(key string, snapshot *entry, optimistic uint64) {
	s.mu.Lock()
	cur, ok := s.entries[key]
	if !ok || cur.version != optimistic {
		marked := ok && cur.optimistic && !cur.stale
		if marked {
			cur.stale = true
		}
		s.mu.Unlock()
		s.logger.Debug("rollback skipped, entry moved on", "key", key)
		if marked {
			s.notifyObservers(key)
		}
		return
	}
	if snapshot == nil {
		delete(s.entries, key)
	} else {
		cp := *snapshot
		s.version++
		cp.version = s.version
		if cp.optimistic {
			cp.stale = true
		}
		s.entries[key] = &cp
	}
	s.mu.Unlock()

	s.notifyObservers(key)
}
