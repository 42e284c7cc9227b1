//go:generate go run go.uber.org/mock/mockgen -source=feed.go -destination=../mocks/mock_feed_store.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"roomsync/domain"
)

// Store persists the local feed's durable state: room records and message
// history. Presence is deliberately not stored, it is live state only.
type Store interface {
	SaveRoom(room domain.Room) error
	LoadRoom(id string) (domain.Room, bool, error)
	DeleteRoom(id string) error
	AppendMessage(roomID, id string, msg domain.Message) error
	Messages(roomID string, limit int) ([]domain.Message, error)
}

// FeedStore persists feed state in BadgerDB.
// Keys are formatted as:
//
//	room:{room_id}
//	msg:{room_id}:{generated_id}
//
// Generated ids are ULIDs, lexicographically ordered by creation time, so a
// prefix scan returns messages chronologically without a separate index.
type FeedStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewFeedStore(db *badger.DB, log *slog.Logger) FeedStore {
	return FeedStore{db: db, log: log}
}

func (f FeedStore) SaveRoom(room domain.Room) error {
	bytes, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return f.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.ID), bytes)
	})
}

func (f FeedStore) LoadRoom(id string) (domain.Room, bool, error) {
	var room domain.Room
	found := false
	err := f.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &room)
		})
	})
	return room, found, err
}

// DeleteRoom removes the room record together with its message history.
func (f FeedStore) DeleteRoom(id string) error {
	return f.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(roomKey(id)); err != nil {
			return err
		}

		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := messagePrefix(id)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (f FeedStore) AppendMessage(roomID, id string, msg domain.Message) error {
	msg.ID = id
	bytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return f.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(roomID, id), bytes)
	})
}

// Messages retrieves up to limit of the most recent messages of a room in
// chronological order. A non-positive limit returns the full history. The
// scan runs in reverse so the bound applies to the newest entries, the
// result is flipped back to ascending before returning.
func (f FeedStore) Messages(roomID string, limit int) ([]domain.Message, error) {
	var raw [][]byte
	err := f.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := messagePrefix(roomID)
		// Seek past the newest possible key, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				f.log.Debug(fmt.Sprintf("Maximum of %d messages reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg domain.Message
		if err := json.Unmarshal(raw[i], &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func roomKey(roomID string) []byte {
	return []byte(fmt.Sprintf("room:%s", roomID))
}

func messagePrefix(roomID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", roomID))
}

func messageKey(roomID, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%s", roomID, id))
}
