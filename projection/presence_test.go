package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roomsync/domain"
)

func snapshot(participants ...domain.Participant) map[string]any {
	children := make(map[string]any, len(participants))
	for _, p := range participants {
		children[p.ID] = p
	}
	return children
}

func TestPresenceTracker_ApplySnapshot_ReplacesView(t *testing.T) {
	req := require.New(t)
	tracker := NewPresenceTracker()
	now := time.Now().UTC()
	alice := domain.Participant{ID: "alice", Name: "Alice", JoinedAt: now}
	bob := domain.Participant{ID: "bob", Name: "Bob", JoinedAt: now.Add(time.Second)}

	// Given an earlier snapshot containing both participants
	tracker.ApplySnapshot(snapshot(alice, bob))
	req.Equal(2, tracker.Count())

	// When a newer snapshot no longer contains bob
	tracker.ApplySnapshot(snapshot(alice))

	// Then bob is absent from the local view
	req.Equal(1, tracker.Count())
	members := tracker.Participants()
	req.Len(members, 1)
	req.Equal("alice", members[0].ID)
}

func TestPresenceTracker_ApplySnapshot_EmptySnapshotClearsRoom(t *testing.T) {
	req := require.New(t)
	tracker := NewPresenceTracker()
	tracker.ApplySnapshot(snapshot(domain.Participant{ID: "alice"}))

	tracker.ApplySnapshot(map[string]any{})

	req.Zero(tracker.Count())
}

func TestPresenceTracker_ApplySnapshot_SkipsMalformedChildren(t *testing.T) {
	req := require.New(t)
	tracker := NewPresenceTracker()

	tracker.ApplySnapshot(map[string]any{
		"alice":   domain.Participant{ID: "alice", Name: "Alice"},
		"corrupt": "not a participant",
	})

	req.Equal(1, tracker.Count())
	req.Equal("alice", tracker.Participants()[0].ID)
}

func TestPresenceTracker_Participants_OrderedByJoinTime(t *testing.T) {
	req := require.New(t)
	tracker := NewPresenceTracker()
	now := time.Now().UTC()

	tracker.ApplySnapshot(snapshot(
		domain.Participant{ID: "late", JoinedAt: now.Add(time.Minute)},
		domain.Participant{ID: "early", JoinedAt: now},
		domain.Participant{ID: "middle", JoinedAt: now.Add(time.Second)},
	))

	members := tracker.Participants()
	req.Equal([]string{"early", "middle", "late"}, []string{members[0].ID, members[1].ID, members[2].ID})
}
