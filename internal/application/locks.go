package application

import "sync"

// TenantLocks serializes recomputation per tenant. Resolve and the
// derivation passes are unsafe to run concurrently for the same tenant, so
// every trigger path (HTTP, scheduler) takes the tenant's lock first.
type TenantLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTenantLocks() *TenantLocks {
	return &TenantLocks{locks: make(map[string]*sync.Mutex)}
}

func (t *TenantLocks) Lock(tenant string) func() {
	t.mu.Lock()
	l, ok := t.locks[tenant]
	if !ok {
		l = &sync.Mutex{}
		t.locks[tenant] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
