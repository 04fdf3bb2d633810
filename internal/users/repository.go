package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("users: not found")
	ErrEmailTaken = errors.New("users: email already registered")
)

// Update carries a partial user update; nil fields are left unchanged.
type Update struct {
	Name   *string
	Role   *string
	Status *string
}

type ListParams struct {
	Limit  int
	Offset int
}

type Repository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, p ListParams) ([]User, int, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, id string, upd Update) (User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
