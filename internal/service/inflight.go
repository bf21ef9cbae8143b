package service

import (
	"context"
	"sync"
)

// inflight tracks keyed work that must not overlap: one publish per
// restaurant, one index rebuild per data directory. Shutdown drains it.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
	wg   sync.WaitGroup
}

// acquire claims key, reporting false if someone already holds it.
func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.keys[key]; held {
		return false
	}
	if f.keys == nil {
		f.keys = make(map[string]struct{})
	}
	f.keys[key] = struct{}{}
	f.wg.Add(1)
	return true
}

// release gives key back. Pair it with a successful acquire.
func (f *inflight) release(key string) {
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
	f.wg.Done()
}

// drain waits for every held key to be released, or for ctx.
func (f *inflight) drain(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
