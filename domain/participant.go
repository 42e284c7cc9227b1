// Package domain contains core concepts of the room synchronization engine.
// This file defines Participant entities and related invariants.
package domain

import "time"

// Participant is a member of a room, keyed by their Identity within it.
// At most one entry exists per (room, identity) pair, last write wins.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}
