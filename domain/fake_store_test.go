package domain

import (
	"context"
	"fmt"
)

// fakeTaskStore is a map-backed TaskStore for exercising the reorder
// coordinator. failUpdate injects an error for a specific id.
type fakeTaskStore struct {
	tasks      map[int]Task
	updates    []int
	failUpdate map[int]error
}

func newFakeTaskStore(tasks ...Task) *fakeTaskStore {
	s := &fakeTaskStore{tasks: map[int]Task{}}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (f *fakeTaskStore) GetAll(ctx context.Context) ([]Task, error) {
	out := make([]Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id int) (Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return t, nil
}

func (f *fakeTaskStore) Create(ctx context.Context, fields TaskFields) (Task, error) {
	id := 1
	for existing := range f.tasks {
		if existing >= id {
			id = existing + 1
		}
	}
	t := Task{ID: id, Title: fields.Title, Priority: fields.Priority}
	f.tasks[id] = t
	return t, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, id int, upd TaskUpdate) (Task, error) {
	if err, ok := f.failUpdate[id]; ok {
		return Task{}, err
	}
	t, ok := f.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	upd.Apply(&t)
	f.tasks[id] = t
	f.updates = append(f.updates, id)
	return t, nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, id int) error {
	if _, ok := f.tasks[id]; !ok {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	delete(f.tasks, id)
	return nil
}
