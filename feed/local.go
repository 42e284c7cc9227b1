// Package feed provides an in-process implementation of the realtime feed
// capability set: keyed writes, creation-order appends, bounded-history
// subscriptions, and per-connection disconnect cleanup. It stands in for a
// hosted realtime store and backs the CLI client and the tests.
package feed

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"roomsync/contract"
	"roomsync/domain"
	"roomsync/repositories"
)

// ErrConnClosed is returned by every operation on a disconnected connection.
var ErrConnClosed = fmt.Errorf("feed connection closed")

type item struct {
	id    string
	value any
}

type subKind int

const (
	snapshotSub subKind = iota
	appendedSub
)

type subscription struct {
	feed       *Local
	conn       *Conn
	kind       subKind
	path       string
	onSnapshot contract.SnapshotFunc
	onAppended contract.AppendedFunc
	closed     bool
}

// Close detaches the subscription. Closing an already closed handle is not
// an error, the release path must tolerate handles in any state.
func (s *subscription) Close() error {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	s.feed.detach(s)
	return nil
}

// Local is the shared in-process store. Every client obtains its own Conn
// via Connect; notification callbacks run synchronously under the feed
// lock, in creation order, and must not call back into the feed.
type Local struct {
	mu      sync.Mutex
	log     *slog.Logger
	entropy *ulid.MonotonicEntropy

	values map[string]any    // exact path -> value
	items  map[string][]item // collection path -> appended items, creation order
	subs   []*subscription

	store  repositories.Store // optional durability
	loaded map[string]bool    // collections already replayed from the store
}

type Option func(*Local)

// WithStore attaches a durable store: room records and pushed messages are
// written through, and collections are replayed from it on first access.
func WithStore(store repositories.Store) Option {
	return func(l *Local) {
		l.store = store
	}
}

func NewLocal(log *slog.Logger, opts ...Option) *Local {
	l := &Local{
		log:     log,
		entropy: ulid.Monotonic(rand.Reader, 0),
		values:  make(map[string]any),
		items:   make(map[string][]item),
		loaded:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Connect opens a client connection. Each session gets its own so the
// disconnect-cleanup hooks of one client never fire for another.
func (l *Local) Connect() *Conn {
	return &Conn{feed: l, cleanup: make(map[string]struct{})}
}

// ActiveSubscriptions counts open subscriptions whose path starts with
// prefix. An empty prefix counts them all.
func (l *Local) ActiveSubscriptions(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, sub := range l.subs {
		if !sub.closed && strings.HasPrefix(sub.path, prefix) {
			count++
		}
	}
	return count
}

// Conn is one client's connection to the shared feed. It implements the
// contract.Feed capability set.
type Conn struct {
	feed    *Local
	cleanup map[string]struct{}
	closed  bool
}

var _ contract.Feed = (*Conn)(nil)

func (c *Conn) Write(_ context.Context, path string, value any) error {
	l := c.feed
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	l.write(path, value)
	return nil
}

func (c *Conn) Push(_ context.Context, collectionPath string, value any) (string, error) {
	l := c.feed
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.closed {
		return "", ErrConnClosed
	}
	return l.push(collectionPath, value)
}

func (c *Conn) Remove(_ context.Context, path string) error {
	l := c.feed
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	l.remove(path)
	return nil
}

func (c *Conn) ReadOnce(_ context.Context, path string) (any, bool, error) {
	l := c.feed
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.closed {
		return nil, false, ErrConnClosed
	}
	return l.readOnce(path)
}

func (c *Conn) SubscribeSnapshot(path string, fn contract.SnapshotFunc) (contract.Subscription, error) {
	l := c.feed
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.closed {
		return nil, ErrConnClosed
	}

	sub := &subscription{feed: l, conn: c, kind: snapshotSub, path: path, onSnapshot: fn}
	l.subs = append(l.subs, sub)

	// The subscriber sees the current state immediately, then every change.
	fn(l.snapshotValue(path))
	return sub, nil
}

func (c *Conn) SubscribeAppended(collectionPath string, limitToLast int, fn contract.AppendedFunc) (contract.Subscription, error) {
	l := c.feed
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.closed {
		return nil, ErrConnClosed
	}

	l.ensureLoaded(collectionPath)
	sub := &subscription{feed: l, conn: c, kind: appendedSub, path: collectionPath, onAppended: fn}
	l.subs = append(l.subs, sub)

	// Replay the most recent limitToLast existing items in creation order.
	existing := l.items[collectionPath]
	start := 0
	if limitToLast > 0 && len(existing) > limitToLast {
		start = len(existing) - limitToLast
	}
	for _, it := range existing[start:] {
		fn(it.id, it.value)
	}
	return sub, nil
}

func (c *Conn) OnDisconnectRemove(path string) error {
	l := c.feed
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	c.cleanup[path] = struct{}{}
	return nil
}

// Disconnect simulates losing the client's connection: every registered
// cleanup removal fires server-side and the connection's subscriptions die
// with it. Further operations on the connection fail.
func (c *Conn) Disconnect() {
	l := c.feed
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true

	for path := range c.cleanup {
		l.remove(path)
	}
	c.cleanup = make(map[string]struct{})

	subs := append([]*subscription(nil), l.subs...)
	for _, sub := range subs {
		if sub.conn == c {
			l.detach(sub)
		}
	}
}

// --- core operations, caller holds l.mu ---

func (l *Local) write(path string, value any) {
	l.values[path] = value
	l.persistWrite(path, value)
	l.notifyPath(path)
}

func (l *Local) push(collectionPath string, value any) (string, error) {
	l.ensureLoaded(collectionPath)

	id, err := ulid.New(ulid.Timestamp(time.Now()), l.entropy)
	if err != nil {
		return "", err
	}
	generated := id.String()

	l.items[collectionPath] = append(l.items[collectionPath], item{id: generated, value: value})
	l.values[collectionPath+"/"+generated] = value
	l.persistPush(collectionPath, generated, value)

	for _, sub := range l.subs {
		if !sub.closed && sub.kind == appendedSub && sub.path == collectionPath {
			sub.onAppended(generated, value)
		}
	}
	l.notifySnapshot(collectionPath)
	return generated, nil
}

// remove deletes the value at path and everything beneath it.
func (l *Local) remove(path string) {
	delete(l.values, path)
	prefix := path + "/"
	for key := range l.values {
		if strings.HasPrefix(key, prefix) {
			delete(l.values, key)
		}
	}
	for key := range l.items {
		if key == path || strings.HasPrefix(key, prefix) {
			delete(l.items, key)
		}
	}
	l.persistRemove(path)
	l.notifyPath(path)

	// Subtree removal: subscribers sitting below the removed path observe
	// their own value emptied out.
	for _, sub := range append([]*subscription(nil), l.subs...) {
		if !sub.closed && sub.kind == snapshotSub && strings.HasPrefix(sub.path, prefix) {
			sub.onSnapshot(l.snapshotValue(sub.path))
		}
	}
}

func (l *Local) readOnce(path string) (any, bool, error) {
	if value, ok := l.values[path]; ok {
		return value, true, nil
	}
	if roomID, ok := roomIDFromRoomPath(path); ok && l.store != nil {
		room, found, err := l.store.LoadRoom(roomID)
		if err != nil || !found {
			return nil, false, err
		}
		l.values[path] = room
		return room, true, nil
	}
	return nil, false, nil
}

// notifyPath fires the snapshot subscribers of path and of its parent,
// which observes path as one of its children.
func (l *Local) notifyPath(path string) {
	l.notifySnapshot(path)
	if i := strings.LastIndex(path, "/"); i > 0 {
		l.notifySnapshot(path[:i])
	}
}

func (l *Local) notifySnapshot(path string) {
	var value any
	computed := false
	for _, sub := range l.subs {
		if sub.closed || sub.kind != snapshotSub || sub.path != path {
			continue
		}
		if !computed {
			value = l.snapshotValue(path)
			computed = true
		}
		sub.onSnapshot(value)
	}
}

// snapshotValue is the full value at path: the exact value when one was
// written there, otherwise the map of direct children.
func (l *Local) snapshotValue(path string) any {
	if value, ok := l.values[path]; ok {
		return value
	}
	children := make(map[string]any)
	prefix := path + "/"
	for key, value := range l.values {
		child := strings.TrimPrefix(key, prefix)
		if child == key || strings.Contains(child, "/") {
			continue
		}
		children[child] = value
	}
	return children
}

// --- durability, caller holds l.mu ---

func (l *Local) ensureLoaded(collectionPath string) {
	if l.store == nil || l.loaded[collectionPath] {
		return
	}
	l.loaded[collectionPath] = true

	roomID, ok := roomIDFromMessagesPath(collectionPath)
	if !ok {
		return
	}
	messages, err := l.store.Messages(roomID, 0)
	if err != nil {
		l.log.Warn("Failed to replay messages from store", "room", roomID, "err", err)
		return
	}
	for _, msg := range messages {
		l.items[collectionPath] = append(l.items[collectionPath], item{id: msg.ID, value: msg})
		l.values[collectionPath+"/"+msg.ID] = msg
	}
}

func (l *Local) persistWrite(path string, value any) {
	if l.store == nil {
		return
	}
	if _, ok := roomIDFromRoomPath(path); !ok {
		return
	}
	room, ok := value.(domain.Room)
	if !ok {
		return
	}
	if err := l.store.SaveRoom(room); err != nil {
		l.log.Warn("Failed to persist room record", "room", room.ID, "err", err)
	}
}

func (l *Local) persistPush(collectionPath, id string, value any) {
	if l.store == nil {
		return
	}
	roomID, ok := roomIDFromMessagesPath(collectionPath)
	if !ok {
		return
	}
	msg, ok := value.(domain.Message)
	if !ok {
		return
	}
	if err := l.store.AppendMessage(roomID, id, msg); err != nil {
		l.log.Warn("Failed to persist message", "room", roomID, "id", id, "err", err)
	}
}

func (l *Local) persistRemove(path string) {
	if l.store == nil {
		return
	}
	if roomID, ok := roomIDFromRoomPath(path); ok {
		if err := l.store.DeleteRoom(roomID); err != nil {
			l.log.Warn("Failed to delete room record", "room", roomID, "err", err)
		}
	}
}

func (l *Local) detach(sub *subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	for i, candidate := range l.subs {
		if candidate == sub {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			break
		}
	}
}

// --- path parsing ---

// roomIDFromRoomPath matches room/{roomId}.
func roomIDFromRoomPath(path string) (string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) == 2 && parts[0] == "room" && parts[1] != "" {
		return parts[1], true
	}
	return "", false
}

// roomIDFromMessagesPath matches room/{roomId}/messages.
func roomIDFromMessagesPath(path string) (string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) == 3 && parts[0] == "room" && parts[1] != "" && parts[2] == "messages" {
		return parts[1], true
	}
	return "", false
}
