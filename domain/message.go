// Package domain contains core concepts of the room synchronization engine.
// This file defines Message entities and related rules.
// Messages are immutable once created.
package domain

import "time"

// Message is an immutable chat entry. The ordering key is the feed-assigned
// ID, never the client timestamp: client clocks are untrusted for ordering.
type Message struct {
	ID       string    `json:"id"`
	FromID   string    `json:"fromId"`
	FromName string    `json:"fromName"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}
