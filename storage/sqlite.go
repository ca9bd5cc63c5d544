package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"taskflow-api/domain"
)

// SQLite backs both collections with a local database file. The single
// connection plus per-operation transactions keep id assignment atomic.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	priority TEXT NOT NULL DEFAULT 'medium',
	due_date TEXT DEFAULT NULL,
	category_id INTEGER NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	display_order INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '#5B4FE9',
	display_order INTEGER NOT NULL DEFAULT 0
);`
	_, err := s.db.Exec(ddl)
	return err
}

// Tasks returns the task store view of the database.
func (s *SQLite) Tasks() *SQLiteTasks { return &SQLiteTasks{db: s.db} }

// Categories returns the category store view of the database.
func (s *SQLite) Categories() *SQLiteCategories { return &SQLiteCategories{db: s.db} }

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: path}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}

// SQLiteTasks implements domain.TaskStore over the tasks table.
type SQLiteTasks struct {
	db *sql.DB
}

const taskColumns = "id, title, completed, priority, due_date, category_id, notes, display_order, created_at"

func scanTask(row interface{ Scan(...any) error }) (domain.Task, error) {
	var t domain.Task
	var completed int
	var priority string
	var due sql.NullString
	var created string
	if err := row.Scan(&t.ID, &t.Title, &completed, &priority, &due, &t.CategoryID, &t.Notes, &t.Order, &created); err != nil {
		return domain.Task{}, err
	}
	t.Completed = completed == 1
	t.Priority = domain.Priority(priority)
	if due.Valid {
		if parsed, err := time.Parse(time.RFC3339, due.String); err == nil {
			t.DueDate = &parsed
		}
	}
	if parsed, err := time.Parse(time.RFC3339, created); err == nil {
		t.CreatedAt = parsed
	}
	return t, nil
}

func taskArgs(t domain.Task) (completed int, due sql.NullString, created string) {
	if t.Completed {
		completed = 1
	}
	if t.DueDate != nil {
		due = sql.NullString{String: t.DueDate.UTC().Format(time.RFC3339Nano), Valid: true}
	}
	created = t.CreatedAt.UTC().Format(time.RFC3339Nano)
	return completed, due, created
}

func (s *SQLiteTasks) GetAll(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY id;")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLiteTasks) GetByID(ctx context.Context, id int) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?;", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return t, err
}

func (s *SQLiteTasks) Create(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	task := domain.Task{
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	if task.Order == 0 {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks;").Scan(&count); err != nil {
			return domain.Task{}, err
		}
		task.Order = count + 1
	}
	completed, due, created := taskArgs(task)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO tasks (title, completed, priority, due_date, category_id, notes, display_order, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?);",
		task.Title, completed, string(task.Priority), due, task.CategoryID, task.Notes, task.Order, created)
	if err != nil {
		return domain.Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Task{}, err
	}
	task.ID = int(id)
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func (s *SQLiteTasks) Update(ctx context.Context, id int, upd domain.TaskUpdate) (domain.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?;", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Task{}, err
	}
	upd.Apply(&task)
	completed, due, created := taskArgs(task)
	_, err = tx.ExecContext(ctx,
		"UPDATE tasks SET title = ?, completed = ?, priority = ?, due_date = ?, category_id = ?, notes = ?, display_order = ?, created_at = ? WHERE id = ?;",
		task.Title, completed, string(task.Priority), due, task.CategoryID, task.Notes, task.Order, created, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func (s *SQLiteTasks) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?;", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SQLiteCategories implements domain.CategoryStore over the categories table.
type SQLiteCategories struct {
	db *sql.DB
}

func (s *SQLiteCategories) GetAll(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, color, display_order FROM categories ORDER BY id;")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Order); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *SQLiteCategories) GetByID(ctx context.Context, id int) (domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx, "SELECT id, name, color, display_order FROM categories WHERE id = ?;", id).
		Scan(&c.ID, &c.Name, &c.Color, &c.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
	}
	return c, err
}

func (s *SQLiteCategories) Create(ctx context.Context, fields domain.CategoryFields) (domain.Category, error) {
	cat := domain.Category{Name: fields.Name, Color: fields.Color, Order: fields.Order}
	if cat.Color == "" {
		cat.Color = domain.DefaultCategoryColor
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Category{}, err
	}
	defer tx.Rollback()

	if cat.Order == 0 {
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories;").Scan(&cat.Order); err != nil {
			return domain.Category{}, err
		}
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO categories (name, color, display_order) VALUES (?, ?, ?);",
		cat.Name, cat.Color, cat.Order)
	if err != nil {
		return domain.Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Category{}, err
	}
	cat.ID = int(id)
	if err := tx.Commit(); err != nil {
		return domain.Category{}, err
	}
	return cat, nil
}

func (s *SQLiteCategories) Update(ctx context.Context, id int, upd domain.CategoryUpdate) (domain.Category, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Category{}, err
	}
	defer tx.Rollback()

	var cat domain.Category
	err = tx.QueryRowContext(ctx, "SELECT id, name, color, display_order FROM categories WHERE id = ?;", id).
		Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Category{}, err
	}
	upd.Apply(&cat)
	_, err = tx.ExecContext(ctx,
		"UPDATE categories SET name = ?, color = ?, display_order = ? WHERE id = ?;",
		cat.Name, cat.Color, cat.Order, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Category{}, err
	}
	return cat, nil
}

func (s *SQLiteCategories) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?;", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
