//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"roomsync/domain/event"
)

// Feed is the capability set consumed from the realtime datastore.
// The wire format and the store's own replication, durability, and retry
// policies are the store's concern, not specified here.
type Feed interface {
	// Write upserts the value at a key path, last write wins.
	Write(ctx context.Context, path string, value any) error

	// Push appends a value under a collection path and returns the
	// feed-assigned key. Keys are monotonically increasing by creation
	// order and are the only trusted ordering key.
	Push(ctx context.Context, collectionPath string, value any) (string, error)

	// Remove deletes the value at a key path.
	Remove(ctx context.Context, path string) error

	// ReadOnce performs a one-shot read. The second result reports
	// whether a value exists at the path.
	ReadOnce(ctx context.Context, path string) (any, bool, error)

	// SubscribeSnapshot fires fn with the full value at path immediately
	// and then on every subsequent change.
	SubscribeSnapshot(path string, fn SnapshotFunc) (Subscription, error)

	// SubscribeAppended fires fn once per item in creation order, bounded
	// to the most recent limitToLast existing items at subscribe time plus
	// all subsequent items.
	SubscribeAppended(collectionPath string, limitToLast int, fn AppendedFunc) (Subscription, error)

	// OnDisconnectRemove arranges a server-side removal of the value at
	// path should the client's connection drop without an explicit leave.
	OnDisconnectRemove(path string) error
}

// SnapshotFunc receives the full value at the subscribed path. For a
// collection path the value is a map of child key to child value.
type SnapshotFunc func(value any)

// AppendedFunc receives one appended item together with its feed-assigned key.
type AppendedFunc func(id string, value any)

// Subscription is a first-class handle on an open feed subscription.
// Close is idempotent: closing an already closed handle is not an error.
type Subscription interface {
	Close() error
}

// EventSink consumes the events the session emits once remote changes
// have been applied locally.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}
