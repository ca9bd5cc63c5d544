package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taskflow-api/domain"
)

// wait simulates backend latency while honoring cancellation. Store methods
// call it before touching state so callers exercise the same asynchronous
// contract as a networked backend.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// MemoryTasks is the in-process task store. All mutations run under a single
// mutex, so id assignment is atomic with respect to every other operation.
// Ids grow monotonically and are never reused, even after the highest id is
// deleted.
type MemoryTasks struct {
	mu      sync.Mutex
	latency time.Duration
	nextID  int
	tasks   []domain.Task
}

// NewMemoryTasks creates an empty store. A positive latency is applied to
// every operation.
func NewMemoryTasks(latency time.Duration) *MemoryTasks {
	return &MemoryTasks{latency: latency, nextID: 1}
}

// Seed replaces the collection, keeping id assignment ahead of the seeded
// records.
func (s *MemoryTasks) Seed(tasks []domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make([]domain.Task, 0, len(tasks))
	s.nextID = 1
	for _, t := range tasks {
		s.tasks = append(s.tasks, t.Clone())
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
}

func (s *MemoryTasks) GetAll(ctx context.Context) ([]domain.Task, error) {
	if err := wait(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (s *MemoryTasks) GetByID(ctx context.Context, id int) (domain.Task, error) {
	if err := wait(ctx, s.latency); err != nil {
		return domain.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return domain.Task{}, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
}

func (s *MemoryTasks) Create(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	if err := wait(ctx, s.latency); err != nil {
		return domain.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task := domain.Task{
		ID:         s.nextID,
		Title:      fields.Title,
		Priority:   fields.Priority,
		CategoryID: fields.CategoryID,
		Notes:      fields.Notes,
		Order:      fields.Order,
		CreatedAt:  time.Now().UTC(),
	}
	if !task.Priority.Valid() {
		task.Priority = domain.PriorityMedium
	}
	if fields.DueDate != nil {
		d := *fields.DueDate
		task.DueDate = &d
	}
	if task.Order == 0 {
		task.Order = len(s.tasks) + 1
	}
	s.nextID++
	s.tasks = append(s.tasks, task)
	return task.Clone(), nil
}

func (s *MemoryTasks) Update(ctx context.Context, id int, upd domain.TaskUpdate) (domain.Task, error) {
	if err := wait(ctx, s.latency); err != nil {
		return domain.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			upd.Apply(&s.tasks[i])
			return s.tasks[i].Clone(), nil
		}
	}
	return domain.Task{}, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
}

func (s *MemoryTasks) Delete(ctx context.Context, id int) error {
	if err := wait(ctx, s.latency); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
}

// MemoryCategories is the in-process category store.
type MemoryCategories struct {
	mu      sync.Mutex
	latency time.Duration
	nextID  int
	cats    []domain.Category
}

func NewMemoryCategories(latency time.Duration) *MemoryCategories {
	return &MemoryCategories{latency: latency, nextID: 1}
}

// Seed replaces the collection, keeping id assignment ahead of the seeded
// records.
func (s *MemoryCategories) Seed(cats []domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats = append([]domain.Category(nil), cats...)
	s.nextID = 1
	for _, c := range cats {
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
}

func (s *MemoryCategories) GetAll(ctx context.Context) ([]domain.Category, error) {
	if err := wait(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Category, len(s.cats))
	copy(out, s.cats)
	return out, nil
}

func (s *MemoryCategories) GetByID(ctx context.Context, id int) (domain.Category, error) {
	if err := wait(ctx, s.latency); err != nil {
		return domain.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cats {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Category{}, fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
}

func (s *MemoryCategories) Create(ctx context.Context, fields domain.CategoryFields) (domain.Category, error) {
	if err := wait(ctx, s.latency); err != nil {
		return domain.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cat := domain.Category{
		ID:    s.nextID,
		Name:  fields.Name,
		Color: fields.Color,
		Order: fields.Order,
	}
	if cat.Color == "" {
		cat.Color = domain.DefaultCategoryColor
	}
	if cat.Order == 0 {
		cat.Order = len(s.cats)
	}
	s.nextID++
	s.cats = append(s.cats, cat)
	return cat, nil
}

func (s *MemoryCategories) Update(ctx context.Context, id int, upd domain.CategoryUpdate) (domain.Category, error) {
	if err := wait(ctx, s.latency); err != nil {
		return domain.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cats {
		if s.cats[i].ID == id {
			upd.Apply(&s.cats[i])
			return s.cats[i], nil
		}
	}
	return domain.Category{}, fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
}

func (s *MemoryCategories) Delete(ctx context.Context, id int) error {
	if err := wait(ctx, s.latency); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cats {
		if s.cats[i].ID == id {
			s.cats = append(s.cats[:i], s.cats[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
}
