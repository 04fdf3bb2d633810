package provider

// CallRecord is the provider's wire shape for one call. Cost and
// Successful are pointers because the provider omits them for calls
// that never connected; the sync routine applies the defaults.
type CallRecord struct {
	CallID  string `json:"call_id"`
	AgentID string `json:"agent_id"`

	StartTimestamp int64 `json:"start_timestamp"` // ms
	EndTimestamp   int64 `json:"end_timestamp"`   // ms

	Cost       *float64 `json:"call_cost,omitempty"`
	Successful *bool    `json:"call_successful,omitempty"`

	Transcript          string `json:"transcript,omitempty"`
	Summary             string `json:"call_summary,omitempty"`
	Sentiment           string `json:"user_sentiment,omitempty"`
	RecordingURL        string `json:"recording_url,omitempty"`
	DisconnectionReason string `json:"disconnection_reason,omitempty"`
}

// AgentRecord is one roster entry from the provider.
type AgentRecord struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"agent_name"`
}

// TimeWindow bounds a call query by start timestamp, in absolute ms.
type TimeWindow struct {
	LowerMs int64 `json:"lower_threshold"`
	UpperMs int64 `json:"upper_threshold"`
}
