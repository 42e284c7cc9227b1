package identity

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	// Reduced value log size for testing
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestStore_Resolve_IsStableAcrossCalls(t *testing.T) {
	req := require.New(t)
	store := NewStore(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	first := store.Resolve()
	second := store.Resolve()

	req.NotEmpty(first.ID)
	req.Equal(first, second)
}

func TestStore_Resolve_IsStableAcrossStoreInstances(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	first := NewStore(db, log).Resolve()
	second := NewStore(db, log).Resolve()

	req.Equal(first, second)
}

func TestStore_Resolve_FallsBackToSessionOnlyIdentity(t *testing.T) {
	req := require.New(t)
	store := NewStore(nil, logs.GetLoggerFromLevel(slog.LevelDebug))

	// Storage unavailable: a usable identity is still returned, it just
	// does not survive the process
	first := store.Resolve()
	second := store.Resolve()

	req.NotEmpty(first.ID)
	req.NotEmpty(second.ID)
	req.NotEqual(first.ID, second.ID)
}

func TestStore_DisplayName_RoundTrips(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := NewStore(db, log)

	req.Empty(store.DisplayName())
	req.NoError(store.SetDisplayName("Alice"))
	req.Equal("Alice", store.DisplayName())

	// Visible through a fresh store on the same database
	req.Equal("Alice", NewStore(db, log).DisplayName())
}
