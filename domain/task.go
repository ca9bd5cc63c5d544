package domain

import "time"

// Task is a single item on the board. CategoryID is the normalized integer
// identifier of the owning category; zero means uncategorized. A non-zero
// CategoryID may reference a category that was deleted, consumers treat that
// the same as uncategorized.
type Task struct {
	ID         int        `json:"id"`
	Title      string     `json:"title"`
	Completed  bool       `json:"completed"`
	Priority   Priority   `json:"priority"`
	DueDate    *time.Time `json:"dueDate"`
	CategoryID int        `json:"categoryId,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Order      int        `json:"order"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Category groups tasks and drives the sidebar.
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Order int    `json:"order"`
}

// DefaultCategoryColor is applied when a category is created without one.
const DefaultCategoryColor = "#5B4FE9"

// TaskFields carries caller-supplied fields for creating a task. The store
// owns default policy: Completed starts false, an empty Priority becomes
// medium, a zero Order means "append after the existing collection".
type TaskFields struct {
	Title      string     `json:"title"`
	Priority   Priority   `json:"priority"`
	DueDate    *time.Time `json:"dueDate"`
	CategoryID int        `json:"categoryId"`
	Notes      string     `json:"notes"`
	Order      int        `json:"order"`
}

// CategoryFields carries caller-supplied fields for creating a category.
type CategoryFields struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Order int    `json:"order"`
}

// TaskUpdate is a partial update. Nil fields are left unchanged; listed
// fields replace the stored value. ClearDueDate removes the due date, it
// wins over DueDate when both are set.
type TaskUpdate struct {
	Title        *string
	Completed    *bool
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
	CategoryID   *int
	Notes        *string
	Order        *int
}

// Apply merges the update into t.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.ClearDueDate {
		t.DueDate = nil
	} else if u.DueDate != nil {
		d := *u.DueDate
		t.DueDate = &d
	}
	if u.CategoryID != nil {
		t.CategoryID = *u.CategoryID
	}
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
	if u.Order != nil {
		t.Order = *u.Order
	}
}

// CategoryUpdate is a partial update for a category.
type CategoryUpdate struct {
	Name  *string
	Color *string
	Order *int
}

// Apply merges the update into c.
func (u CategoryUpdate) Apply(c *Category) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Color != nil {
		c.Color = *u.Color
	}
	if u.Order != nil {
		c.Order = *u.Order
	}
}

// Clone returns a copy of t that shares no pointers with the original.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	return out
}
