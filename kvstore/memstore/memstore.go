package memstore

import (
	"sync"

	"github.com/cleanflow/go-client-session/kvstore"
)

var _ kvstore.Store = (*MemStore)(nil)

// MemStore is an in-memory kvstore.Store. Safe for concurrent use, which
// covers the shared-store role in tests where several simulated tabs point
// at the same instance.
type MemStore struct {
	entries map[string]string
	lock    sync.RWMutex
}

func New() *MemStore {
	return &MemStore{
		entries: make(map[string]string),
	}
}

func (ms *MemStore) Get(key string) (string, bool, error) {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	value, ok := ms.entries[key]
	return value, ok, nil
}

func (ms *MemStore) Set(key, value string) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	ms.entries[key] = value
	return nil
}

func (ms *MemStore) Delete(key string) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	delete(ms.entries, key)
	return nil
}

// Len returns the number of stored entries.
func (ms *MemStore) Len() int {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	return len(ms.entries)
}
