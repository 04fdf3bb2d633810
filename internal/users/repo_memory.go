package users

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory users repository for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	rows []User

	// Clock is injectable for deterministic tests.
	Clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{Clock: time.Now}
}

func (r *MemoryRepo) indexByID(id string) int {
	for i := range r.rows {
		if r.rows[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *MemoryRepo) indexByEmail(email string) int {
	for i := range r.rows {
		if r.rows[i].Email == email {
			return i
		}
	}
	return -1
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexByID(id); i >= 0 {
		return r.rows[i], nil
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexByEmail(email); i >= 0 {
		return r.rows[i], nil
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, p ListParams) ([]User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]User, len(r.rows))
	copy(rows, r.rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	total := len(rows)
	if p.Offset >= total {
		return []User{}, total, nil
	}
	end := total
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return rows[p.Offset:end], total, nil
}

func (r *MemoryRepo) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexByEmail(u.Email) >= 0 {
		return User{}, ErrEmailTaken
	}
	now := r.Clock().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.rows = append(r.rows, u)
	return u, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, upd Update) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexByID(id)
	if i < 0 {
		return User{}, ErrNotFound
	}
	if upd.Name != nil {
		r.rows[i].Name = *upd.Name
	}
	if upd.Role != nil {
		r.rows[i].Role = *upd.Role
	}
	if upd.Status != nil {
		r.rows[i].Status = *upd.Status
	}
	r.rows[i].UpdatedAt = r.Clock().UTC()
	return r.rows[i], nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexByID(id)
	if i < 0 {
		return ErrNotFound
	}
	r.rows = append(r.rows[:i], r.rows[i+1:]...)
	return nil
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}
