package errors

import "fmt"

// Validation failures are rejected synchronously, before any feed call.
var (
	ErrEmptyRoomID  = fmt.Errorf("room id is empty")
	ErrEmptyMessage = fmt.Errorf("message text is empty")
	ErrEmptyName    = fmt.Errorf("display name is empty")
	ErrNotJoined    = fmt.Errorf("no room is joined")
)

var (
	// ErrFeedUnavailable marks a remote feed write, read, or subscribe failure.
	ErrFeedUnavailable = fmt.Errorf("feed unavailable")

	// ErrJoinAborted marks a join canceled by a leave that arrived mid-flight.
	ErrJoinAborted = fmt.Errorf("join aborted")
)
