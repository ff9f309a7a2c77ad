// Package registry implements the one-shot, load-order-independent hand-off
// of implementor mappings between fragment producers and the single renderer
// interested in each trait.
//
// The in-page original works through two well-known globals: a controller
// function a fragment calls when it is loaded, and a pending slot the
// fragment writes when it is not. Here the same protocol is an explicit
// object: Publish delivers a mapping to the consumer when one is attached and
// stashes it otherwise, OnConsumerReady attaches the consumer and drains
// whatever was stashed. Either side may come first, the outcome is the same.
package registry

import (
	"sync"

	"impdex/fragment"
)

// Consumer receives published mappings. Calling it repeatedly is expected,
// each call is processed independently.
type Consumer func(fragment.Mapping)

// Registry is a single-consumer hand-off point for one trait.
//
// The zero value is ready to use. Methods are safe for concurrent use; the
// consumer itself always runs without the registry lock held.
type Registry struct {
	mu         sync.Mutex
	consumer   Consumer
	pending    fragment.Mapping
	hasPending bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Publish hands a mapping off: directly to the consumer when one is attached,
// otherwise into the pending slot, overwriting any previous value. Exactly
// one of the two happens per call, even for a nil mapping. The slot being
// overwritten or never consumed is not reported anywhere.
func (r *Registry) Publish(m fragment.Mapping) {
	r.mu.Lock()
	consumer := r.consumer
	if consumer == nil {
		r.pending = m
		r.hasPending = true
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	consumer(m)
}

// OnConsumerReady attaches the consumer for all future publishes and, when a
// mapping is pending, drains it: fn receives it exactly once and the slot
// ends empty. The slot is cleared before fn runs, so a publish from inside fn
// is delivered directly. A nil fn is ignored; attaching again replaces the
// consumer.
func (r *Registry) OnConsumerReady(fn Consumer) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.consumer = fn
	m := r.pending
	had := r.hasPending
	r.pending = nil
	r.hasPending = false
	r.mu.Unlock()
	if had {
		fn(m)
	}
}

// HasConsumer reports whether a consumer is attached.
func (r *Registry) HasConsumer() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumer != nil
}

// Pending returns the stashed mapping, if any, without consuming it.
func (r *Registry) Pending() (fragment.Mapping, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending, r.hasPending
}
