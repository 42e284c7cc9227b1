// Package domain contains core concepts of the room synchronization engine.
// This file defines the per-device Identity.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is the stable per-device participant identifier.
// It is created once, immutable for the process lifetime, and distinct
// from the display name a participant chooses.
type Identity struct {
	ID string
}
