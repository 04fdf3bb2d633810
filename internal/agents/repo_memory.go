package agents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory agents repository for tests.
// Semantics mirror PostgresRepo, including upsert status handling.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []Agent

	// Clock is injectable for deterministic tests.
	Clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{Clock: time.Now}
}

func (r *MemoryRepo) now() time.Time { return r.Clock().UTC() }

func (r *MemoryRepo) indexOf(agentID string) int {
	for i := range r.rows {
		if r.rows[i].AgentID == agentID {
			return i
		}
	}
	return -1
}

func (r *MemoryRepo) GetByAgentID(ctx context.Context, agentID string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(agentID); i >= 0 {
		return r.rows[i], nil
	}
	return Agent{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, p ListParams) ([]Agent, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := make([]Agent, 0, len(r.rows))
	for _, a := range r.rows {
		if p.Status != "" && a.Status != p.Status {
			continue
		}
		filtered = append(filtered, a)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].ID > filtered[j].ID
	})

	total := len(filtered)
	return page(filtered, p.Limit, p.Offset), total, nil
}

func (r *MemoryRepo) Create(ctx context.Context, a Agent) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(a.AgentID) >= 0 {
		return Agent{}, ErrConflict
	}
	r.nextID++
	a.ID = r.nextID
	if a.Status == "" {
		a.Status = StatusActive
	}
	now := r.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.rows = append(r.rows, a)
	return a, nil
}

func (r *MemoryRepo) Update(ctx context.Context, agentID string, upd Update) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(agentID)
	if i < 0 {
		return Agent{}, ErrNotFound
	}
	if upd.Name != nil {
		r.rows[i].Name = *upd.Name
	}
	if upd.Status != nil {
		r.rows[i].Status = *upd.Status
	}
	r.rows[i].UpdatedAt = r.now()
	return r.rows[i], nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, agentID, name string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(agentID); i >= 0 {
		r.rows[i].Name = name
		r.rows[i].UpdatedAt = r.now()
		return r.rows[i], nil
	}
	r.nextID++
	now := r.now()
	a := Agent{
		ID:        r.nextID,
		AgentID:   agentID,
		Name:      name,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.rows = append(r.rows, a)
	return a, nil
}

func (r *MemoryRepo) Deactivate(ctx context.Context, agentID string) (Agent, error) {
	status := StatusInactive
	return r.Update(ctx, agentID, Update{Status: &status})
}

func (r *MemoryRepo) Count(ctx context.Context, status Status) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status == "" {
		return len(r.rows), nil
	}
	n := 0
	for _, a := range r.rows {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func page(rows []Agent, limit, offset int) []Agent {
	if offset >= len(rows) {
		return []Agent{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]Agent, end-offset)
	copy(out, rows[offset:end])
	return out
}
