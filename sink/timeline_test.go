package sink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roomsync/domain"
	"roomsync/domain/event"
)

func TestTimeline_RecordsMessagesInDeliveryOrder(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	// Given two messages delivered in order
	first := domain.Message{ID: "m1", FromID: "id-alice", Text: "hello", At: time.Now()}
	second := domain.Message{ID: "m2", FromID: "id-bob", Text: "hi", At: time.Now()}
	req.NoError(timeline.Consume(context.Background(), event.MessageReceived{Room: "r", Message: first}))
	req.NoError(timeline.Consume(context.Background(), event.MessageReceived{Room: "r", Message: second}))

	// Then the timeline preserves that order
	req.Equal([]domain.Message{first, second}, timeline.Messages())
}

func TestTimeline_KeepsLatestPresenceSnapshot(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	// Given two successive presence snapshots
	alice := domain.Participant{ID: "id-alice", Name: "Alice"}
	bob := domain.Participant{ID: "id-bob", Name: "Bob"}
	req.NoError(timeline.Consume(context.Background(), event.PresenceChanged{Room: "r", Participants: []domain.Participant{alice, bob}}))
	req.NoError(timeline.Consume(context.Background(), event.PresenceChanged{Room: "r", Participants: []domain.Participant{bob}}))

	// Then only the latest snapshot remains
	req.Equal([]domain.Participant{bob}, timeline.Participants())
}
