package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"roomsync/domain"
)

func openTestStore(t *testing.T) FeedStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return NewFeedStore(db, logs.GetLoggerFromLevel(slog.LevelDebug))
}

// messageID fabricates lexicographically increasing generated ids the way
// the feed's ULIDs behave.
func messageID(seq int) string {
	return fmt.Sprintf("%026d", seq)
}

func TestFeedStore_Room_RoundTrips(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	room := domain.Room{ID: "abc1234", CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}

	req.NoError(store.SaveRoom(room))

	loaded, found, err := store.LoadRoom("abc1234")
	req.NoError(err)
	req.True(found)
	req.Equal(room.ID, loaded.ID)
	req.True(room.CreatedAt.Equal(loaded.CreatedAt))
}

func TestFeedStore_LoadRoom_AbsentRoom(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)

	_, found, err := store.LoadRoom("missing")

	req.NoError(err)
	req.False(found)
}

func TestFeedStore_Messages_ChronologicalWithLimit(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)

	total := 10
	for seq := 0; seq < total; seq++ {
		msg := domain.Message{FromID: "alice", Text: fmt.Sprintf("message %d", seq), At: time.Now().UTC()}
		req.NoError(store.AppendMessage("r1", messageID(seq), msg))
	}

	// The full history comes back oldest first
	all, err := store.Messages("r1", 0)
	req.NoError(err)
	req.Len(all, total)
	for i := 1; i < len(all); i++ {
		req.Less(all[i-1].ID, all[i].ID)
	}

	// A limit keeps only the most recent entries, still oldest first
	recent, err := store.Messages("r1", 3)
	req.NoError(err)
	req.Len(recent, 3)
	req.Equal(messageID(total-3), recent[0].ID)
	req.Equal(messageID(total-1), recent[2].ID)
}

func TestFeedStore_Messages_IsolatedPerRoom(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)

	req.NoError(store.AppendMessage("r1", messageID(1), domain.Message{Text: "a"}))
	req.NoError(store.AppendMessage("r2", messageID(2), domain.Message{Text: "b"}))

	messages, err := store.Messages("r1", 0)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("a", messages[0].Text)
}

func TestFeedStore_DeleteRoom_DropsRecordAndHistory(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)

	req.NoError(store.SaveRoom(domain.NewRoom("r1")))
	req.NoError(store.AppendMessage("r1", messageID(1), domain.Message{Text: "a"}))

	req.NoError(store.DeleteRoom("r1"))

	_, found, err := store.LoadRoom("r1")
	req.NoError(err)
	req.False(found)

	messages, err := store.Messages("r1", 0)
	req.NoError(err)
	req.Empty(messages)
}
