package analytics

import (
	"context"
	"time"

	"callpulse/internal/agents"
	"callpulse/internal/calls"
	"callpulse/pkg/utils"
)

// Cache keys. One key per aggregate so invalidation stays cheap.
const (
	keyOverview       = "analytics:overview"
	keyAgentPrefix    = "analytics:agent:"
	keySentiment      = "analytics:sentiment"
	keyDisconnections = "analytics:disconnections"
)

// Overview aggregates the whole call corpus.
type Overview struct {
	TotalCalls      int     `json:"totalCalls"`
	TotalDurationMs int64   `json:"totalDurationMs"`
	AvgDurationMs   int64   `json:"avgDurationMs"`
	TotalCost       float64 `json:"totalCost"`
	SuccessRate     float64 `json:"successRate"`
	ActiveAgents    int     `json:"activeAgents"`
	InactiveAgents  int     `json:"inactiveAgents"`
}

// AgentStats aggregates one agent's calls.
type AgentStats struct {
	AgentID         string  `json:"agentId"`
	AgentName       string  `json:"agentName"`
	TotalCalls      int     `json:"totalCalls"`
	TotalDurationMs int64   `json:"totalDurationMs"`
	AvgDurationMs   int64   `json:"avgDurationMs"`
	TotalCost       float64 `json:"totalCost"`
	SuccessRate     float64 `json:"successRate"`
}

// Service computes read-only aggregates over stored calls and agents.
// The cache is optional: a nil *utils.Cache degrades every lookup to a
// repository query, so correctness never depends on Redis.
type Service struct {
	calls  calls.Repository
	agents agents.Repository
	cache  *utils.Cache
	ttl    time.Duration
}

func NewService(callRepo calls.Repository, agentRepo agents.Repository, cache *utils.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{calls: callRepo, agents: agentRepo, cache: cache, ttl: ttl}
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	if s.cache.GetJSON(ctx, keyOverview, &out) {
		return out, nil
	}

	agg, err := s.aggregate(ctx, calls.Filter{})
	if err != nil {
		return Overview{}, err
	}
	out = Overview{
		TotalCalls:      agg.total,
		TotalDurationMs: agg.durationMs,
		AvgDurationMs:   agg.avgDurationMs(),
		TotalCost:       agg.cost,
		SuccessRate:     agg.successRate(),
	}

	if out.ActiveAgents, err = s.agents.Count(ctx, agents.StatusActive); err != nil {
		return Overview{}, err
	}
	if out.InactiveAgents, err = s.agents.Count(ctx, agents.StatusInactive); err != nil {
		return Overview{}, err
	}

	s.cache.SetJSON(ctx, keyOverview, out, s.ttl)
	return out, nil
}

// AgentStats returns aggregates for one agent. The agent must exist;
// an agent with no calls yields all-zero stats, not an error.
func (s *Service) AgentStats(ctx context.Context, agentID string) (AgentStats, error) {
	key := keyAgentPrefix + agentID
	var out AgentStats
	if s.cache.GetJSON(ctx, key, &out) {
		return out, nil
	}

	a, err := s.agents.GetByAgentID(ctx, agentID)
	if err != nil {
		return AgentStats{}, err
	}

	agg, err := s.aggregate(ctx, calls.Filter{AgentID: agentID})
	if err != nil {
		return AgentStats{}, err
	}
	out = AgentStats{
		AgentID:         a.AgentID,
		AgentName:       a.Name,
		TotalCalls:      agg.total,
		TotalDurationMs: agg.durationMs,
		AvgDurationMs:   agg.avgDurationMs(),
		TotalCost:       agg.cost,
		SuccessRate:     agg.successRate(),
	}

	s.cache.SetJSON(ctx, key, out, s.ttl)
	return out, nil
}

// SentimentBreakdown counts calls per sentiment label. Rows with an
// empty sentiment are grouped under "".
func (s *Service) SentimentBreakdown(ctx context.Context) (map[string]int, error) {
	return s.breakdown(ctx, keySentiment, calls.GroupBySentiment)
}

// DisconnectionBreakdown counts calls per disconnection reason.
func (s *Service) DisconnectionBreakdown(ctx context.Context) (map[string]int, error) {
	return s.breakdown(ctx, keyDisconnections, calls.GroupByDisconnectionReason)
}

// InvalidateAll drops every cached aggregate. Called after a sync run
// so fresh data is visible without waiting out the TTL.
func (s *Service) InvalidateAll(ctx context.Context, agentIDs ...string) {
	keys := []string{keyOverview, keySentiment, keyDisconnections}
	for _, id := range agentIDs {
		keys = append(keys, keyAgentPrefix+id)
	}
	_ = s.cache.Invalidate(ctx, keys...)
}

func (s *Service) breakdown(ctx context.Context, key string, field calls.GroupField) (map[string]int, error) {
	var out map[string]int
	if s.cache.GetJSON(ctx, key, &out) {
		return out, nil
	}
	out, err := s.calls.GroupCount(ctx, calls.Filter{}, field)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, out, s.ttl)
	return out, nil
}

type callAggregate struct {
	total      int
	successful int
	durationMs int64
	cost       float64
}

func (a callAggregate) avgDurationMs() int64 {
	if a.total == 0 {
		return 0
	}
	return a.durationMs / int64(a.total)
}

func (a callAggregate) successRate() float64 {
	if a.total == 0 {
		return 0
	}
	return float64(a.successful) / float64(a.total)
}

func (s *Service) aggregate(ctx context.Context, f calls.Filter) (callAggregate, error) {
	var agg callAggregate
	var err error

	if agg.total, err = s.calls.Count(ctx, f); err != nil {
		return callAggregate{}, err
	}

	ok := true
	succ := f
	succ.Successful = &ok
	if agg.successful, err = s.calls.Count(ctx, succ); err != nil {
		return callAggregate{}, err
	}

	if agg.durationMs, err = s.calls.SumDurationMs(ctx, f); err != nil {
		return callAggregate{}, err
	}
	if agg.cost, err = s.calls.SumCost(ctx, f); err != nil {
		return callAggregate{}, err
	}
	return agg, nil
}
