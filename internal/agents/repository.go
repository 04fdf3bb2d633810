package agents

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("agents: not found")
	ErrConflict = errors.New("agents: agent_id already exists")
)

// Update carries a partial agent update; nil fields are left unchanged.
type Update struct {
	Name   *string
	Status *Status
}

type ListParams struct {
	Status Status // empty = all
	Limit  int
	Offset int
}

// Repository is the persistence contract for agents.
// List returns the page plus the total row count for the filter, so
// handlers can compute hasMore without a second round trip.
type Repository interface {
	GetByAgentID(ctx context.Context, agentID string) (Agent, error)
	List(ctx context.Context, p ListParams) ([]Agent, int, error)
	Create(ctx context.Context, a Agent) (Agent, error)
	Update(ctx context.Context, agentID string, upd Update) (Agent, error)

	// Upsert creates the agent (ACTIVE) or refreshes its name and
	// updated_at. Status of an existing row is left untouched so a
	// deactivated agent is not silently revived by a sync run.
	Upsert(ctx context.Context, agentID, name string) (Agent, error)

	// Deactivate is the only supported "delete": a status flip.
	Deactivate(ctx context.Context, agentID string) (Agent, error)

	Count(ctx context.Context, status Status) (int, error)
}
