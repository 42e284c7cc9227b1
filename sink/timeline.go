package sink

import (
	"context"
	"sync"

	"roomsync/domain"
	"roomsync/domain/event"
)

// Timeline records applied room changes as they are consumed. Feed
// callbacks deliver events from the writer's goroutine, so access is
// guarded.
type Timeline struct {
	mu           sync.Mutex
	messages     []domain.Message
	participants []domain.Participant
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

func (t *Timeline) Consume(_ context.Context, e event.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt := e.(type) {
	case event.MessageReceived:
		t.messages = append(t.messages, evt.Message)
	case event.PresenceChanged:
		t.participants = evt.Participants
	}
	return nil
}

// Messages returns every message consumed so far, in delivery order.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Message(nil), t.messages...)
}

// Participants returns the latest presence snapshot seen.
func (t *Timeline) Participants() []domain.Participant {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Participant(nil), t.participants...)
}
