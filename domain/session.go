package domain

// Status is the lifecycle state of a room session.
// Transitions: Idle -> Joining -> Joined -> Leaving -> Idle.
type Status int

const (
	StatusIdle Status = iota
	StatusJoining
	StatusJoined
	StatusLeaving
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusJoining:
		return "Joining"
	case StatusJoined:
		return "Joined"
	case StatusLeaving:
		return "Leaving"
	default:
		return "Unknown"
	}
}

// SessionView is the read-only state the UI collaborator consumes.
type SessionView struct {
	RoomID       string
	Joined       bool
	Status       Status
	Identity     Identity
	Participants []Participant
	Messages     []Message
}
