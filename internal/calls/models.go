package calls

import (
	"errors"
	"time"
)

// Call is a call record pulled from the external provider.
//
// Referential invariant: AgentID must reference an existing row in
// agents at write time; the sync routine upserts agents first.
//
// Timestamps are absolute milliseconds and cross the JSON boundary as
// plain numbers. Values past 2^53 ms would lose precision in
// JavaScript clients; with millisecond epochs that is ~287,000 years
// away, so it is noted rather than worked around.
type Call struct {
	ID      int64  `json:"id"`
	CallID  string `json:"call_id"` // provider identifier, unique
	AgentID string `json:"agent_id"`

	StartTimestamp int64 `json:"start_timestamp"` // ms
	EndTimestamp   int64 `json:"end_timestamp"`   // ms
	DurationMs     int64 `json:"duration_ms"`     // always end - start

	Cost float64 `json:"cost"`

	Transcript          string `json:"transcript,omitempty"`
	Summary             string `json:"call_summary,omitempty"`
	Sentiment           string `json:"user_sentiment,omitempty"`
	RecordingURL        string `json:"recording_url,omitempty"`
	Successful          bool   `json:"call_successful"`
	DisconnectionReason string `json:"disconnection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrEndBeforeStart   = errors.New("calls: end_timestamp before start_timestamp")
	ErrNegativeCost     = errors.New("calls: cost must be non-negative")
	ErrDurationMismatch = errors.New("calls: duration_ms must equal end_timestamp - start_timestamp")
)

// Validate enforces the stored-call invariants.
func (c Call) Validate() error {
	if c.EndTimestamp < c.StartTimestamp {
		return ErrEndBeforeStart
	}
	if c.Cost < 0 {
		return ErrNegativeCost
	}
	if c.DurationMs != c.EndTimestamp-c.StartTimestamp {
		return ErrDurationMismatch
	}
	return nil
}
