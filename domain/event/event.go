// Package event defines the notifications the session fans out to sinks
// once a remote change has been applied to the local view.
package event

import "roomsync/domain"

type Event interface {
	RoomID() string
}

// MessageReceived is emitted after a feed notification survived
// deduplication and was appended to the local message stream.
type MessageReceived struct {
	Room    string
	Message domain.Message
}

func (e MessageReceived) RoomID() string {
	return e.Room
}

// PresenceChanged is emitted after a presence snapshot replaced the
// local participant view.
type PresenceChanged struct {
	Room         string
	Participants []domain.Participant
}

func (e PresenceChanged) RoomID() string {
	return e.Room
}
