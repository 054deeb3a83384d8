package common

import "sync"

// KeyedMutex serializes operations per string key. Imports and category
// assignments for one user share a key so their read-modify-write cycles
// never interleave, while different users proceed in parallel.
type KeyedMutex struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

// NewKeyedMutex creates an empty lock registry.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use, and returns the
// matching unlock function. Mutexes are retained for the life of the
// registry; the key space is bounded by the set of active users.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
