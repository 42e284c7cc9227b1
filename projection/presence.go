// Package projection builds local views from observed feed notifications.
// Handles ordering, deduplication, and replacement semantics.
// Does not emit events or interact with UI directly.
package projection

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"roomsync/domain"
)

// PresenceTracker maintains the authoritative local view of who is in the
// room. It consumes whole-collection snapshots and replaces its view
// entirely on every notification: last snapshot wins. A participant absent
// from the latest snapshot has left, no history is kept.
type PresenceTracker struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		participants: make(map[string]domain.Participant),
	}
}

// ApplySnapshot replaces the participant view with the given snapshot.
// The snapshot is the full value at the participants path: a map of
// identity id to participant record. Child values of any other shape are
// skipped rather than failing the whole snapshot.
func (p *PresenceTracker) ApplySnapshot(value any) {
	next := make(map[string]domain.Participant)
	if children, ok := value.(map[string]any); ok {
		for id, raw := range children {
			if participant, ok := raw.(domain.Participant); ok {
				next[id] = participant
			}
		}
	}

	p.mu.Lock()
	p.participants = next
	p.mu.Unlock()
}

// Participants returns the current members ordered by join time,
// identity id breaking ties.
func (p *PresenceTracker) Participants() []domain.Participant {
	p.mu.RLock()
	members := lo.Values(p.participants)
	p.mu.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].ID < members[j].ID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members
}

func (p *PresenceTracker) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.participants)
}

// Reset drops the whole view, used when the session leaves its room.
func (p *PresenceTracker) Reset() {
	p.mu.Lock()
	p.participants = make(map[string]domain.Participant)
	p.mu.Unlock()
}
