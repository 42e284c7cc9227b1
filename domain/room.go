package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const roomCodeLength = 7

// Room is a named chat channel with independent participant and message sets.
// It is identified by an externally visible short code.
type Room struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewRoom(id string) Room {
	return Room{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}
}

// NewRoomCode generates a short shareable room code.
func NewRoomCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToLower(raw[:roomCodeLength])
}
