package calls

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory calls repository for tests.
// Filtering, sorting and tiebreak semantics mirror PostgresRepo.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []Call

	// Clock is injectable for deterministic tests.
	Clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{Clock: time.Now}
}

func (r *MemoryRepo) indexOf(callID string) int {
	for i := range r.rows {
		if r.rows[i].CallID == callID {
			return i
		}
	}
	return -1
}

func matches(c Call, f Filter) bool {
	if f.AgentID != "" && c.AgentID != f.AgentID {
		return false
	}
	if f.Sentiment != "" && c.Sentiment != f.Sentiment {
		return false
	}
	if f.Successful != nil && c.Successful != *f.Successful {
		return false
	}
	if f.FromMs > 0 && c.StartTimestamp < f.FromMs {
		return false
	}
	if f.ToMs > 0 && c.StartTimestamp > f.ToMs {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		hay := []string{c.Transcript, c.Summary, c.Sentiment, c.DisconnectionReason}
		found := false
		for _, h := range hay {
			if strings.Contains(strings.ToLower(h), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *MemoryRepo) filtered(f Filter) []Call {
	out := make([]Call, 0, len(r.rows))
	for _, c := range r.rows {
		if matches(c, f) {
			out = append(out, c)
		}
	}
	return out
}

func (r *MemoryRepo) GetByCallID(ctx context.Context, callID string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(callID); i >= 0 {
		return r.rows[i], nil
	}
	return Call{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, f Filter, s Sort, p Page) ([]Call, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.filtered(f)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch s {
		case SortDurationDesc:
			if a.DurationMs != b.DurationMs {
				return a.DurationMs > b.DurationMs
			}
		case SortCostDesc:
			if a.Cost != b.Cost {
				return a.Cost > b.Cost
			}
		default:
			if a.StartTimestamp != b.StartTimestamp {
				return a.StartTimestamp > b.StartTimestamp
			}
		}
		return a.ID < b.ID
	})

	total := len(rows)
	if p.Offset >= total {
		return []Call{}, total, nil
	}
	end := total
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	out := make([]Call, end-p.Offset)
	copy(out, rows[p.Offset:end])
	return out, total, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, c Call) (Call, error) {
	if err := c.Validate(); err != nil {
		return Call{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Clock().UTC()
	if i := r.indexOf(c.CallID); i >= 0 {
		c.ID = r.rows[i].ID
		c.CreatedAt = r.rows[i].CreatedAt
		c.UpdatedAt = now
		r.rows[i] = c
		return c, nil
	}
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = now
	c.UpdatedAt = now
	r.rows = append(r.rows, c)
	return c, nil
}

func (r *MemoryRepo) Count(ctx context.Context, f Filter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filtered(f)), nil
}

func (r *MemoryRepo) SumCost(ctx context.Context, f Filter) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for _, c := range r.filtered(f) {
		sum += c.Cost
	}
	return sum, nil
}

func (r *MemoryRepo) SumDurationMs(ctx context.Context, f Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, c := range r.filtered(f) {
		sum += c.DurationMs
	}
	return sum, nil
}

func (r *MemoryRepo) GroupCount(ctx context.Context, f Filter, field GroupField) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := map[string]int{}
	for _, c := range r.filtered(f) {
		switch field {
		case GroupBySentiment:
			out[c.Sentiment]++
		case GroupByDisconnectionReason:
			out[c.DisconnectionReason]++
		}
	}
	return out, nil
}
