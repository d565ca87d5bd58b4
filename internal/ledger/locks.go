package ledger

import "sync"

// keyedMutex provides a mutex per vehicle ID. Checkout's check-and-create
// and every registry read-modify-write run under the vehicle's mutex so two
// racing operations on the same vehicle cannot both pass validation against
// stale state. Operations on different vehicles do not contend.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns the unlock func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
