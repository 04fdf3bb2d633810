package agents

import "time"

// Agent mirrors a voice agent defined at the external provider.
//
// Lifecycle invariant: agents are never hard-deleted. Deletion flips
// Status to INACTIVE so that historical calls keep a valid reference.
type Agent struct {
	ID      int64  `json:"id"`
	AgentID string `json:"agent_id"` // provider identifier, unique
	Name    string `json:"name"`
	Status  Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}
