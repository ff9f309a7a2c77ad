package registry

import (
	"sort"
	"sync"

	"github.com/maruel/natural"
)

// Exchange is a keyed set of registries, one per trait path, created on
// demand. It only composes single-consumer registries: no fan-out, no
// queuing, no aggregation.
type Exchange struct {
	mu    sync.RWMutex
	slots map[string]*Registry
}

// NewExchange creates an empty exchange.
func NewExchange() *Exchange {
	return &Exchange{slots: make(map[string]*Registry)}
}

// Registry returns the registry for a trait path, creating it when absent.
func (e *Exchange) Registry(key string) *Registry {
	e.mu.RLock()
	r, ok := e.slots[key]
	e.mu.RUnlock()
	if ok {
		return r
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok = e.slots[key]; ok {
		return r
	}
	r = New()
	e.slots[key] = r
	return r
}

// Keys returns trait paths of all registries in natural order.
func (e *Exchange) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.slots))
	for k := range e.slots {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

// Len returns the number of registries.
func (e *Exchange) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.slots)
}
