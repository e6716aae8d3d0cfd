package models

import (
	"time"
)

// Notification types.
const (
	TypeGeneric      = "generic"
	TypeComment      = "comment"
	TypeStatusChange = "status_change"
	TypeAssignment   = "assignment"
	TypeIssueUpdated = "issue_updated"
	TypeTest         = "test"
)

// Severity levels.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Notification is one persisted user-facing event. ID is store-assigned and
// strictly increasing in insertion order. UserID nil means the notification
// is global: visible to every session regardless of identity.
type Notification struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	CreatedAt time.Time      `json:"created_at"`
	Read      bool           `json:"read"`
	IssueKey  string         `json:"issue_key,omitempty"`
	User      string         `json:"user,omitempty"`
	Action    string         `json:"action,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	UserID    *string        `json:"user_id,omitempty"`
}

// Watcher is an identity interested in a specific external ticket,
// supplied by the upstream sync process.
type Watcher struct {
	ID          string `json:"id" validate:"required"`
	DisplayName string `json:"display_name"`
}

// Event is a detected domain change handed to the notification service.
// ChangedAt carries the upstream change timestamp and participates in the
// dedup signature together with Type.
type Event struct {
	Type      string         `json:"type" validate:"required"`
	Message   string         `json:"message" validate:"required"`
	Severity  string         `json:"severity" validate:"omitempty,oneof=info warning critical"`
	IssueKey  string         `json:"issue_key"`
	User      string         `json:"user"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata"`
	Watchers  []Watcher      `json:"watchers" validate:"dive"`
	ActorID   string         `json:"actor_id"`
	ChangedAt time.Time      `json:"changed_at"`
}

// ValidSeverity reports whether s is one of the known severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}
