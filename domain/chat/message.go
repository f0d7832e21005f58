// Package chat contains the core concepts of the message store.
// Messages are created once, read many times and hard deleted.
// No runtime, network or storage logic should be added here.
package chat

import "time"

// Message is a single chat communication from a sender to a receiver.
// Sender and Receiver are opaque references to users owned elsewhere.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Timestamp time.Time `json:"timestamp"`
}

// Involves reports whether the participant is the sender or the receiver.
func (m Message) Involves(participantID string) bool {
	return m.Sender == participantID || m.Receiver == participantID
}

// NormalizeTimestamp returns the instant the stores keep for a message.
// Every backend persists milliseconds in UTC, so the value handed back by
// an insert compares equal to the one read later.
func NormalizeTimestamp(at time.Time) time.Time {
	return at.UTC().Truncate(time.Millisecond)
}
