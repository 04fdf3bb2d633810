package audit

import "time"

// Event is an immutable, append-only audit record of a mutating action.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and ip capture are best-effort; audit failures must not block
//   the action being recorded.
type Event struct {
	ID string `json:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type"`

	// ActorUserID is empty for service-key callers.
	ActorUserID string `json:"actor_user_id,omitempty"`
	ActorEmail  string `json:"actor_email,omitempty"`

	IPAddress string `json:"ip_address,omitempty"`

	// TargetID names what was acted on: a user id, an agent id.
	TargetID string `json:"target_id,omitempty"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventUserUpdated      EventType = "user_updated"
	EventUserDeleted      EventType = "user_deleted"
	EventAgentDeactivated EventType = "agent_deactivated"
	EventSyncTriggered    EventType = "sync_triggered"
)
