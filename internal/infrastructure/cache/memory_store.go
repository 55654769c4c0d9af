package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	entry     *Entry
	expiresAt time.Time
}

// MemoryStore is a process-local ResponseStore with TTL expiry.
// A background sweeper removes expired items; Close stops it.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]memoryItem
	prefix     string
	maxEntries int
	now        func() time.Time

	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryStore creates a store and starts its sweeper. A sweep interval
// of zero disables the sweeper; expired items are then dropped on read.
func NewMemoryStore(prefix string, maxEntries int, sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		items:      make(map[string]memoryItem),
		prefix:     prefix,
		maxEntries: maxEntries,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}
	if sweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Get returns a live entry
func (s *MemoryStore) Get(_ context.Context, ownerID, key string) (*Entry, bool, error) {
	k := ownerKey(s.prefix, ownerID, key)
	s.mu.RLock()
	item, ok := s.items[k]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(item.expiresAt) {
		s.mu.Lock()
		delete(s.items, k)
		s.mu.Unlock()
		return nil, false, nil
	}
	return item.entry, true, nil
}

// Set stores an entry. When the store is full, expired items are swept
// and if still full the item closest to expiry is evicted.
func (s *MemoryStore) Set(_ context.Context, ownerID, key string, entry *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	k := ownerKey(s.prefix, ownerID, key)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[k]; !exists && s.maxEntries > 0 && len(s.items) >= s.maxEntries {
		s.sweepLocked(now)
		if len(s.items) >= s.maxEntries {
			s.evictOldestLocked()
		}
	}
	s.items[k] = memoryItem{entry: entry, expiresAt: now.Add(ttl)}
	return nil
}

// InvalidateOwner removes every key of the owner
func (s *MemoryStore) InvalidateOwner(_ context.Context, ownerID string) (int, error) {
	p := ownerPrefix(s.prefix, ownerID)
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.items {
		if strings.HasPrefix(k, p) {
			delete(s.items, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored items, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close stops the sweeper. Safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.sweepLocked(s.now())
			s.mu.Unlock()
		}
	}
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for k, item := range s.items {
		if !now.Before(item.expiresAt) {
			delete(s.items, k)
		}
	}
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, item := range s.items {
		if oldestKey == "" || item.expiresAt.Before(oldest) {
			oldestKey, oldest = k, item.expiresAt
		}
	}
	delete(s.items, oldestKey)
}

var _ ResponseStore = (*MemoryStore)(nil)
