package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionIssued    EventType = "session_issued"
	EventSessionRefreshed EventType = "session_refreshed"
	EventSessionRevoked   EventType = "session_revoked"
)

// Event represents a token lifecycle event emitted by the session service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Username  string      `json:"username"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionIssuedPayload payload.
type SessionIssuedPayload struct {
	Authority string `json:"authority"`
	Verified  bool   `json:"verified"`
	Deleted   bool   `json:"deleted,omitempty"`
}

// SessionRefreshedPayload payload.
type SessionRefreshedPayload struct {
	Deleted bool `json:"deleted,omitempty"`
}

// SessionRevokedPayload payload.
type SessionRevokedPayload struct {
	Reason string `json:"reason"`
}
