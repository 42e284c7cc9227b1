package projection

import (
	"sync"

	"roomsync/domain"
)

// DefaultRetention is how many messages the local view keeps before
// evicting from the front.
const DefaultRetention = 200

// MessageStream is the ordered, deduplicated, size-bounded local view of a
// room's message history. It is an append-only log: notifications arrive in
// feed-assigned id order and duplicates (replays from resubscription) are
// dropped, so the view stays sorted without ever re-sorting. Entries only
// leave through cap eviction, oldest first, and are never mutated.
type MessageStream struct {
	mu        sync.RWMutex
	retention int
	seen      map[string]struct{}
	messages  []domain.Message
}

func NewMessageStream(retention int) *MessageStream {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MessageStream{
		retention: retention,
		seen:      make(map[string]struct{}),
	}
}

// Apply records one appended message. It reports false for a stale
// notification: a message whose id is already present.
func (s *MessageStream) Apply(msg domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[msg.ID]; dup {
		return false
	}
	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)

	if len(s.messages) > s.retention {
		evicted := s.messages[0]
		delete(s.seen, evicted.ID)
		copy(s.messages, s.messages[1:])
		s.messages = s.messages[:len(s.messages)-1]
	}
	return true
}

// Messages returns a copy of the current view, oldest first.
func (s *MessageStream) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *MessageStream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Reset drops the whole view, used when the session leaves its room.
func (s *MessageStream) Reset() {
	s.mu.Lock()
	s.seen = make(map[string]struct{})
	s.messages = nil
	s.mu.Unlock()
}
