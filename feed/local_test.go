package feed

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"roomsync/contract"
	"roomsync/domain"
)

func newTestFeed() *Local {
	return NewLocal(logs.GetLoggerFromLevel(slog.LevelDebug))
}

func TestLocal_Push_AssignsMonotonicallyIncreasingIDs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := newTestFeed().Connect()

	var previous string
	for i := 0; i < 100; i++ {
		id, err := conn.Push(ctx, "room/r1/messages", domain.Message{Text: "x"})
		req.NoError(err)
		req.Greater(id, previous)
		previous = id
	}
}

func TestLocal_SubscribeAppended_ReplaysBoundedHistoryInOrder(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	local := newTestFeed()
	conn := local.Connect()

	var pushed []string
	for i := 0; i < 10; i++ {
		id, err := conn.Push(ctx, "room/r1/messages", domain.Message{Text: "x"})
		req.NoError(err)
		pushed = append(pushed, id)
	}

	var replayed []string
	sub, err := local.Connect().SubscribeAppended("room/r1/messages", 3, func(id string, _ any) {
		replayed = append(replayed, id)
	})
	req.NoError(err)
	defer sub.Close()

	// Only the most recent 3 existing items, in creation order
	req.Equal(pushed[7:], replayed)

	// Plus every subsequent item
	id, err := conn.Push(ctx, "room/r1/messages", domain.Message{Text: "y"})
	req.NoError(err)
	req.Equal(append(append([]string{}, pushed[7:]...), id), replayed)
}

func TestLocal_SubscribeSnapshot_FiresImmediatelyAndOnEveryChange(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	local := newTestFeed()
	conn := local.Connect()

	alice := domain.Participant{ID: "alice", Name: "Alice"}
	req.NoError(conn.Write(ctx, contract.ParticipantPath("r1", "alice"), alice))

	var snapshots []map[string]any
	sub, err := local.Connect().SubscribeSnapshot(contract.ParticipantsPath("r1"), func(value any) {
		children, ok := value.(map[string]any)
		req.True(ok)
		snapshots = append(snapshots, children)
	})
	req.NoError(err)
	defer sub.Close()

	// Initial state delivered on subscribe
	req.Len(snapshots, 1)
	req.Contains(snapshots[0], "alice")

	bob := domain.Participant{ID: "bob", Name: "Bob"}
	req.NoError(conn.Write(ctx, contract.ParticipantPath("r1", "bob"), bob))
	req.Len(snapshots, 2)
	req.Len(snapshots[1], 2)

	req.NoError(conn.Remove(ctx, contract.ParticipantPath("r1", "alice")))
	req.Len(snapshots, 3)
	req.NotContains(snapshots[2], "alice")
}

func TestLocal_SubscriptionClose_IsIdempotentAndStopsDelivery(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	local := newTestFeed()
	conn := local.Connect()

	delivered := 0
	sub, err := conn.SubscribeAppended("room/r1/messages", 0, func(string, any) {
		delivered++
	})
	req.NoError(err)

	_, err = conn.Push(ctx, "room/r1/messages", domain.Message{Text: "x"})
	req.NoError(err)
	req.Equal(1, delivered)

	req.NoError(sub.Close())
	req.NoError(sub.Close()) // already closed handles are absorbed

	_, err = conn.Push(ctx, "room/r1/messages", domain.Message{Text: "y"})
	req.NoError(err)
	req.Equal(1, delivered)
	req.Zero(local.ActiveSubscriptions(""))
}

func TestLocal_Disconnect_FiresCleanupAndKillsSubscriptions(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	local := newTestFeed()

	// Two clients in the same room
	alice := local.Connect()
	bob := local.Connect()

	alicePath := contract.ParticipantPath("r1", "alice")
	req.NoError(alice.Write(ctx, alicePath, domain.Participant{ID: "alice"}))
	req.NoError(alice.OnDisconnectRemove(alicePath))

	var lastSnapshot map[string]any
	sub, err := bob.SubscribeSnapshot(contract.ParticipantsPath("r1"), func(value any) {
		lastSnapshot = value.(map[string]any)
	})
	req.NoError(err)
	defer sub.Close()
	req.Contains(lastSnapshot, "alice")

	_, err = alice.SubscribeSnapshot(contract.ParticipantsPath("r1"), func(any) {})
	req.NoError(err)

	// When alice's connection drops
	alice.Disconnect()

	// Then the server-side cleanup removed her presence without any
	// further client action, and her subscriptions died with the connection
	req.NotContains(lastSnapshot, "alice")
	req.Equal(1, local.ActiveSubscriptions(""))

	// And the dead connection rejects further operations
	req.ErrorIs(alice.Write(ctx, alicePath, domain.Participant{ID: "alice"}), ErrConnClosed)
	_, err = alice.Push(ctx, "room/r1/messages", domain.Message{})
	req.ErrorIs(err, ErrConnClosed)
}

func TestLocal_Remove_DeletesSubtree(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := newTestFeed().Connect()

	req.NoError(conn.Write(ctx, contract.RoomPath("r1"), domain.NewRoom("r1")))
	req.NoError(conn.Write(ctx, contract.ParticipantPath("r1", "alice"), domain.Participant{ID: "alice"}))
	_, err := conn.Push(ctx, contract.MessagesPath("r1"), domain.Message{Text: "x"})
	req.NoError(err)

	req.NoError(conn.Remove(ctx, contract.RoomPath("r1")))

	for _, path := range []string{
		contract.RoomPath("r1"),
		contract.ParticipantPath("r1", "alice"),
	} {
		_, found, err := conn.ReadOnce(ctx, path)
		req.NoError(err)
		req.False(found, "path %s should be gone", path)
	}

	// The message history went with the subtree
	var replayed int
	sub, err := conn.SubscribeAppended(contract.MessagesPath("r1"), 0, func(string, any) {
		replayed++
	})
	req.NoError(err)
	defer sub.Close()
	req.Zero(replayed)
}
