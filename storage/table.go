package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskflow-api/domain"
)

const (
	taskPartition     = "tasks"
	categoryPartition = "categories"
)

// Tables backs both collections with Azure Table Storage. Id assignment is
// serialized through a local mutex; the service assumes a single active
// client per data store, so no cross-instance coordination is attempted.
type Tables struct {
	tasks *aztables.Client
	cats  *aztables.Client

	mu         sync.Mutex
	nextTaskID int
	nextCatID  int
}

// NewTables creates a Tables instance from the given connection string.
func NewTables(connStr, tasksTable, categoriesTable string) (*Tables, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Tables{
		tasks: svc.NewClient(tasksTable),
		cats:  svc.NewClient(categoriesTable),
	}, nil
}

// Tasks returns the task store view of the tables.
func (t *Tables) Tasks() *TableTasks { return &TableTasks{t: t} }

// Categories returns the category store view of the tables.
func (t *Tables) Categories() *TableCategories { return &TableCategories{t: t} }

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

type taskEntity struct {
	aztables.Entity
	Title      string `json:"Title"`
	Completed  bool   `json:"Completed"`
	Priority   string `json:"Priority"`
	DueDate    string `json:"DueDate"`
	CategoryID int    `json:"CategoryId"`
	Notes      string `json:"Notes"`
	Order      int    `json:"DisplayOrder"`
	CreatedAt  string `json:"CreatedAt"`
}

func taskFromEntity(ent taskEntity) domain.Task {
	id, _ := strconv.Atoi(ent.RowKey)
	t := domain.Task{
		ID:         id,
		Title:      ent.Title,
		Completed:  ent.Completed,
		Priority:   domain.Priority(ent.Priority),
		CategoryID: ent.CategoryID,
		Notes:      ent.Notes,
		Order:      ent.Order,
	}
	if ent.DueDate != "" {
		if parsed, err := time.Parse(time.RFC3339, ent.DueDate); err == nil {
			t.DueDate = &parsed
		}
	}
	if parsed, err := time.Parse(time.RFC3339, ent.CreatedAt); err == nil {
		t.CreatedAt = parsed
	}
	return t
}

func taskToEntity(t domain.Task) taskEntity {
	ent := taskEntity{
		Entity:     aztables.Entity{PartitionKey: taskPartition, RowKey: strconv.Itoa(t.ID)},
		Title:      t.Title,
		Completed:  t.Completed,
		Priority:   string(t.Priority),
		CategoryID: t.CategoryID,
		Notes:      t.Notes,
		Order:      t.Order,
		CreatedAt:  t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.DueDate != nil {
		ent.DueDate = t.DueDate.UTC().Format(time.RFC3339Nano)
	}
	return ent
}

// TableTasks implements domain.TaskStore over an Azure table.
type TableTasks struct {
	t *Tables
}

func (s *TableTasks) list(ctx context.Context) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + taskPartition + "'"
	pager := s.t.tasks.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, taskFromEntity(ent))
		}
	}
	return tasks, nil
}

func (s *TableTasks) GetAll(ctx context.Context) ([]domain.Task, error) {
	return s.list(ctx)
}

func (s *TableTasks) GetByID(ctx context.Context, id int) (domain.Task, error) {
	resp, err := s.t.tasks.GetEntity(ctx, taskPartition, strconv.Itoa(id), nil)
	if err != nil {
		if isStatus(err, 404) {
			return domain.Task{}, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
		}
		return domain.Task{}, err
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Task{}, err
	}
	return taskFromEntity(ent), nil
}

func (s *TableTasks) Create(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	existing, err := s.list(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	id := s.t.nextTaskID
	if id < 1 {
		id = 1
	}
	for _, t := range existing {
		if t.ID >= id {
			id = t.ID + 1
		}
	}

	task := domain.Task{
		ID:         id,
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
		task.Order = len(existing) + 1
	}

	data, err := json.Marshal(taskToEntity(task))
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.t.tasks.AddEntity(ctx, data, nil); err != nil {
		return domain.Task{}, err
	}
	s.t.nextTaskID = id + 1
	return task, nil
}

func (s *TableTasks) Update(ctx context.Context, id int, upd domain.TaskUpdate) (domain.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	upd.Apply(&task)
	data, err := json.Marshal(taskToEntity(task))
	if err != nil {
		return domain.Task{}, err
	}
	_, err = s.t.tasks.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		if isStatus(err, 404) {
			return domain.Task{}, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
		}
		return domain.Task{}, err
	}
	return task, nil
}

func (s *TableTasks) Delete(ctx context.Context, id int) error {
	_, err := s.t.tasks.DeleteEntity(ctx, taskPartition, strconv.Itoa(id), nil)
	if err != nil {
		if isStatus(err, 404) {
			return fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

type categoryEntity struct {
	aztables.Entity
	Name  string `json:"Name"`
	Color string `json:"Color"`
	Order int    `json:"DisplayOrder"`
}

// TableCategories implements domain.CategoryStore over an Azure table.
type TableCategories struct {
	t *Tables
}

func (s *TableCategories) list(ctx context.Context) ([]domain.Category, error) {
	filter := "PartitionKey eq '" + categoryPartition + "'"
	pager := s.t.cats.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	cats := []domain.Category{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent categoryEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			id, _ := strconv.Atoi(ent.RowKey)
			cats = append(cats, domain.Category{ID: id, Name: ent.Name, Color: ent.Color, Order: ent.Order})
		}
	}
	return cats, nil
}

func (s *TableCategories) GetAll(ctx context.Context) ([]domain.Category, error) {
	return s.list(ctx)
}

func (s *TableCategories) GetByID(ctx context.Context, id int) (domain.Category, error) {
	resp, err := s.t.cats.GetEntity(ctx, categoryPartition, strconv.Itoa(id), nil)
	if err != nil {
		if isStatus(err, 404) {
			return domain.Category{}, fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
		}
		return domain.Category{}, err
	}
	var ent categoryEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Category{}, err
	}
	return domain.Category{ID: id, Name: ent.Name, Color: ent.Color, Order: ent.Order}, nil
}

func (s *TableCategories) Create(ctx context.Context, fields domain.CategoryFields) (domain.Category, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	existing, err := s.list(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	id := s.t.nextCatID
	if id < 1 {
		id = 1
	}
	for _, c := range existing {
		if c.ID >= id {
			id = c.ID + 1
		}
	}

	cat := domain.Category{ID: id, Name: fields.Name, Color: fields.Color, Order: fields.Order}
	if cat.Color == "" {
		cat.Color = domain.DefaultCategoryColor
	}
	if cat.Order == 0 {
		cat.Order = len(existing)
	}

	ent := categoryEntity{
		Entity: aztables.Entity{PartitionKey: categoryPartition, RowKey: strconv.Itoa(id)},
		Name:   cat.Name,
		Color:  cat.Color,
		Order:  cat.Order,
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return domain.Category{}, err
	}
	if _, err := s.t.cats.AddEntity(ctx, data, nil); err != nil {
		return domain.Category{}, err
	}
	s.t.nextCatID = id + 1
	return cat, nil
}

func (s *TableCategories) Update(ctx context.Context, id int, upd domain.CategoryUpdate) (domain.Category, error) {
	cat, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	upd.Apply(&cat)
	ent := categoryEntity{
		Entity: aztables.Entity{PartitionKey: categoryPartition, RowKey: strconv.Itoa(id)},
		Name:   cat.Name,
		Color:  cat.Color,
		Order:  cat.Order,
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return domain.Category{}, err
	}
	_, err = s.t.cats.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		if isStatus(err, 404) {
			return domain.Category{}, fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
		}
		return domain.Category{}, err
	}
	return cat, nil
}

func (s *TableCategories) Delete(ctx context.Context, id int) error {
	_, err := s.t.cats.DeleteEntity(ctx, categoryPartition, strconv.Itoa(id), nil)
	if err != nil {
		if isStatus(err, 404) {
			return fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
		}
		return err
	}
	return nil
}
