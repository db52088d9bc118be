package ride

import (
	"sync"

	"github.com/wasselni/ridehail/pkg/uuid"
)

// keyMutex serializes operations per ride so two transitions on the same
// ride never interleave, while rides stay independent of each other.
// Entries are reference-counted and removed when the last holder unlocks.
type keyMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[uuid.UUID]*keyLock)}
}

func (km *keyMutex) Lock(key uuid.UUID) {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &keyLock{}
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()
}

func (km *keyMutex) Unlock(key uuid.UUID) {
	km.mu.Lock()
	l, ok := km.locks[key]
	if ok {
		l.refs--
		if l.refs == 0 {
			delete(km.locks, key)
		}
	}
	km.mu.Unlock()

	if ok {
		l.mu.Unlock()
	}
}
