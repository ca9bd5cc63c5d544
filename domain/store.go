package domain

import "context"

// TaskStore owns the canonical task collection. Implementations serialize
// mutations internally so concurrent creates never assign the same id, and
// every method returns copies that callers may mutate freely. Reads of a
// missing id fail with ErrNotFound.
type TaskStore interface {
	GetAll(ctx context.Context) ([]Task, error)
	GetByID(ctx context.Context, id int) (Task, error)
	Create(ctx context.Context, fields TaskFields) (Task, error)
	Update(ctx context.Context, id int, upd TaskUpdate) (Task, error)
	Delete(ctx context.Context, id int) error
}

// CategoryStore owns the canonical category collection under the same
// contract as TaskStore.
type CategoryStore interface {
	GetAll(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id int) (Category, error)
	Create(ctx context.Context, fields CategoryFields) (Category, error)
	Update(ctx context.Context, id int, upd CategoryUpdate) (Category, error)
	Delete(ctx context.Context, id int) error
}
