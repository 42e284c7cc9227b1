// Package runtime owns the room session lifecycle: join, leave, rejoin,
// and the cancellation of in-flight transitions. It wires feed
// subscriptions to projections without containing domain rules itself.
package runtime

import (
	"log/slog"
	"sync"

	"roomsync/contract"
)

// Registry owns the set of active feed subscriptions for the current room
// and guarantees each is released exactly once. Cleanup is a first-class,
// idempotent operation here, never a side channel stashed on unrelated
// state.
type Registry struct {
	mu   sync.Mutex
	log  *slog.Logger
	subs []contract.Subscription
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log}
}

func (r *Registry) Register(sub contract.Subscription) {
	if sub == nil {
		return
	}
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// ReleaseAll closes every registered subscription exactly once. A close
// failure on one handle must not prevent closing the rest, so failures are
// logged and skipped. Safe to call repeatedly and with zero registrations.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			r.log.Warn("Failed to close subscription", "err", err)
		}
	}
}
