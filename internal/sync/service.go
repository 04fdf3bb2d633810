package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"callpulse/internal/agents"
	"callpulse/internal/calls"
	"callpulse/internal/provider"
)

var ErrInvalidParams = errors.New("sync: days must be between 1 and 365")

// Source is the slice of the provider client the sync routine needs.
type Source interface {
	FetchAll(ctx context.Context, window provider.TimeWindow) ([]provider.CallRecord, error)
	ListAgents(ctx context.Context) ([]provider.AgentRecord, error)
}

// Params select what to sync. AgentID narrows the run to one agent;
// Days defines the window [now - days, now].
type Params struct {
	AgentID string
	Days    int
}

// Summary reports one sync run. A per-record failure increments Errors
// and never aborts the remaining records; only a failed page drain
// aborts the whole run.
type Summary struct {
	Synced  int `json:"callsSynced"`
	Updated int `json:"callsUpdated"`
	Errors  int `json:"errors"`
}

// Service pulls call records from the provider and reconciles them
// into storage. Concurrent runs are not mutually excluded: every write
// is an upsert keyed by the provider id, so overlapping runs converge
// on the same rows at the cost of redundant provider calls.
type Service struct {
	source Source
	agents agents.Repository
	calls  calls.Repository
	log    *slog.Logger
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(source Source, agentRepo agents.Repository, callRepo calls.Repository, log *slog.Logger) *Service {
	return &Service{
		source: source,
		agents: agentRepo,
		calls:  callRepo,
		log:    log,
		clock:  time.Now,
	}
}

func (s *Service) Run(ctx context.Context, p Params) (Summary, error) {
	if p.Days < 1 || p.Days > 365 {
		return Summary{}, ErrInvalidParams
	}

	now := s.clock().UTC()
	window := provider.TimeWindow{
		LowerMs: now.Add(-time.Duration(p.Days) * 24 * time.Hour).UnixMilli(),
		UpperMs: now.UnixMilli(),
	}

	// Roster fetch is best-effort: a failure degrades to placeholder
	// names, never a failed run.
	roster := map[string]string{}
	if agentRecs, err := s.source.ListAgents(ctx); err != nil {
		s.log.Warn("agent roster unavailable, using placeholder names", "err", err)
	} else {
		for _, a := range agentRecs {
			roster[a.AgentID] = a.Name
		}
	}

	records, err := s.source.FetchAll(ctx, window)
	if err != nil {
		return Summary{}, err
	}

	if p.AgentID != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.AgentID == p.AgentID {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	// Agents first: every call write below requires its agent row to
	// already exist.
	seen := map[string]bool{}
	for _, r := range records {
		if r.AgentID == "" || seen[r.AgentID] {
			continue
		}
		seen[r.AgentID] = true

		name, ok := roster[r.AgentID]
		if !ok {
			name = placeholderName(r.AgentID)
		}
		if _, err := s.agents.Upsert(ctx, r.AgentID, name); err != nil {
			return Summary{}, fmt.Errorf("sync: upsert agent %s: %w", r.AgentID, err)
		}
	}

	var out Summary
	for _, r := range records {
		stored, err := s.calls.Upsert(ctx, mapRecord(r))
		if err != nil {
			s.log.Error("call record skipped", "call_id", r.CallID, "err", err)
			out.Errors++
			continue
		}
		// A row written for the first time has identical timestamps.
		// Two writes inside one clock tick would be misclassified as a
		// create; accepted, the counters are informational.
		if stored.CreatedAt.Equal(stored.UpdatedAt) {
			out.Synced++
		} else {
			out.Updated++
		}
	}

	s.log.Info("sync complete",
		"window_days", p.Days,
		"agent_filter", p.AgentID,
		"fetched", len(records),
		"created", out.Synced,
		"updated", out.Updated,
		"errors", out.Errors,
	)
	return out, nil
}

// mapRecord normalizes a provider record into a Call row: duration is
// derived, missing cost defaults to zero and a missing success flag
// defaults to false.
func mapRecord(r provider.CallRecord) calls.Call {
	c := calls.Call{
		CallID:              r.CallID,
		AgentID:             r.AgentID,
		StartTimestamp:      r.StartTimestamp,
		EndTimestamp:        r.EndTimestamp,
		DurationMs:          r.EndTimestamp - r.StartTimestamp,
		Transcript:          r.Transcript,
		Summary:             r.Summary,
		Sentiment:           r.Sentiment,
		RecordingURL:        r.RecordingURL,
		DisconnectionReason: r.DisconnectionReason,
	}
	if r.Cost != nil {
		c.Cost = *r.Cost
	}
	if r.Successful != nil {
		c.Successful = *r.Successful
	}
	return c
}

func placeholderName(agentID string) string {
	short := agentID
	if len(short) > 8 {
		short = short[:8]
	}
	return "Agent " + short
}
