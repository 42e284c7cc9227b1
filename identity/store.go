// Package identity resolves and persists the stable per-device participant
// identifier across sessions.
package identity

import (
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"roomsync/domain"
)

const (
	identityKey    = "identity:id"
	displayNameKey = "identity:name"
)

// Store resolves the device identity from BadgerDB, generating and
// persisting a fresh one on first use. When storage is unavailable it
// falls back to a process-local, non-persisted identity: an accepted
// degradation, not a fatal condition.
type Store struct {
	db  *badger.DB
	log *slog.Logger
}

func NewStore(db *badger.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Resolve returns the persisted identity, creating one if none exists yet.
// Called once per process lifetime.
func (s *Store) Resolve() domain.Identity {
	if s.db == nil {
		return s.sessionOnly(errors.New("no identity database"))
	}

	var id string
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(identityKey))
		switch {
		case err == nil:
			return item.Value(func(value []byte) error {
				id = string(value)
				return nil
			})
		case errors.Is(err, badger.ErrKeyNotFound):
			id = uuid.NewString()
			return txn.Set([]byte(identityKey), []byte(id))
		default:
			return err
		}
	})
	if err != nil {
		return s.sessionOnly(err)
	}
	return domain.Identity{ID: id}
}

// DisplayName returns the persisted display name, empty when none was set.
func (s *Store) DisplayName() string {
	if s.db == nil {
		return ""
	}
	var name string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(displayNameKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			name = string(value)
			return nil
		})
	})
	if err != nil {
		s.log.Warn("Failed to read display name", "err", err)
	}
	return name
}

func (s *Store) SetDisplayName(name string) error {
	if s.db == nil {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(displayNameKey), []byte(name))
	})
}

func (s *Store) sessionOnly(err error) domain.Identity {
	s.log.Warn("Identity storage unavailable, using session-only identity", "err", err)
	return domain.Identity{ID: uuid.NewString()}
}
