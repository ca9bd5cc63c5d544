package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskflow-api/domain"
	"taskflow-api/storage"
)

// capturePublisher records change events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	fail   error
}

func (p *capturePublisher) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type testServer struct {
	echo       *echo.Echo
	tasks      *storage.MemoryTasks
	categories *storage.MemoryCategories
	publisher  *capturePublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := log.New()
	logger.SetOutput(io.Discard)

	s := &testServer{
		echo:       echo.New(),
		tasks:      storage.NewMemoryTasks(0),
		categories: storage.NewMemoryCategories(0),
		publisher:  &capturePublisher{},
	}
	Register(s.echo, s.tasks, s.categories, s.publisher, logger)
	return s
}

func (s *testServer) request(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type listResponse struct {
	Tasks []struct {
		domain.Task
		Category *domain.Category `json:"category"`
	} `json:"tasks"`
	Stats domain.Stats `json:"stats"`
}

func seedTask(t *testing.T, s *testServer, fields domain.TaskFields) domain.Task {
	t.Helper()
	task, err := s.tasks.Create(context.Background(), fields)
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func TestListTasksReturnsAllWithStats(t *testing.T) {
	s := newTestServer(t)
	past := time.Now().AddDate(0, 0, -2)
	seedTask(t, s, domain.TaskFields{Title: "Buy milk"})
	overdue := seedTask(t, s, domain.TaskFields{Title: "Pay rent", Priority: domain.PriorityHigh, DueDate: &past})

	completed := true
	if _, err := s.tasks.Update(context.Background(), overdue.ID, domain.TaskUpdate{Completed: &completed}); err != nil {
		t.Fatalf("seed update: %v", err)
	}

	rec := s.request(t, http.MethodGet, "/api/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp listResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(resp.Tasks))
	}
	want := domain.Stats{Total: 2, Completed: 1, Pending: 1, Overdue: 0}
	if resp.Stats != want {
		t.Fatalf("expected stats %+v, got %+v", want, resp.Stats)
	}
}

func TestListTasksAppliesFilters(t *testing.T) {
	s := newTestServer(t)
	cat, _ := s.categories.Create(context.Background(), domain.CategoryFields{Name: "Groceries"})
	seedTask(t, s, domain.TaskFields{Title: "Buy milk", Priority: domain.PriorityLow, CategoryID: cat.ID})
	seedTask(t, s, domain.TaskFields{Title: "Pay rent", Priority: domain.PriorityHigh})

	cases := map[string]string{
		"priority": "/api/tasks?priority=high",
		"search":   "/api/tasks?search=rent",
		"combined": "/api/tasks?search=rent&priority=high&status=pending",
	}
	for name, target := range cases {
		rec := s.request(t, http.MethodGet, target, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", name, rec.Code)
		}
		var resp listResponse
		decodeJSON(t, rec, &resp)
		if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "Pay rent" {
			t.Fatalf("%s: expected only Pay rent, got %#v", name, resp.Tasks)
		}
	}

	rec := s.request(t, http.MethodGet, "/api/tasks?category="+strconv.Itoa(cat.ID), "")
	var resp listResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "Buy milk" {
		t.Fatalf("category filter: expected Buy milk, got %#v", resp.Tasks)
	}
	if resp.Tasks[0].Category == nil || resp.Tasks[0].Category.Name != "Groceries" {
		t.Fatalf("expected resolved category, got %#v", resp.Tasks[0].Category)
	}
}

func TestListTasksRejectsInvalidCategory(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/api/tasks?category=abc", "/api/tasks?category=-1"} {
		rec := s.request(t, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestListTasksIgnoresUnknownFilterValues(t *testing.T) {
	s := newTestServer(t)
	seedTask(t, s, domain.TaskFields{Title: "Buy milk"})

	rec := s.request(t, http.MethodGet, "/api/tasks?priority=urgent&status=done&due=someday", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp listResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Tasks) != 1 {
		t.Fatalf("unknown filter values must not hide tasks, got %d", len(resp.Tasks))
	}
}

func TestCreateTask(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodPost, "/api/tasks", `{"title":"  Buy milk  ","priority":"high"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var task domain.Task
	decodeJSON(t, rec, &task)
	if task.ID != 1 || task.Title != "Buy milk" || task.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected task: %#v", task)
	}
	if s.publisher.count() != 1 {
		t.Fatalf("expected one change event, got %d", s.publisher.count())
	}
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]string{
		"empty title":      `{"title":"   "}`,
		"missing title":    `{"priority":"high"}`,
		"invalid priority": `{"title":"x","priority":"urgent"}`,
		"unknown field":    `{"title":"x","color":"red"}`,
		"malformed":        `{"title":`,
	}
	for name, body := range cases {
		rec := s.request(t, http.MethodPost, "/api/tasks", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
	if s.publisher.count() != 0 {
		t.Fatalf("expected no change events on rejected creates, got %d", s.publisher.count())
	}
}

func TestGetTask(t *testing.T) {
	s := newTestServer(t)
	created := seedTask(t, s, domain.TaskFields{Title: "Buy milk"})

	rec := s.request(t, http.MethodGet, "/api/tasks/"+strconv.Itoa(created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if rec := s.request(t, http.MethodGet, "/api/tasks/42", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing task: expected 404, got %d", rec.Code)
	}
	if rec := s.request(t, http.MethodGet, "/api/tasks/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestUpdateTaskPartialMerge(t *testing.T) {
	s := newTestServer(t)
	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	created := seedTask(t, s, domain.TaskFields{Title: "Walk dog", DueDate: &due, Notes: "morning"})

	rec := s.request(t, http.MethodPatch, "/api/tasks/"+strconv.Itoa(created.ID), `{"completed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var task domain.Task
	decodeJSON(t, rec, &task)
	if !task.Completed || task.Title != "Walk dog" || task.Notes != "morning" || task.DueDate == nil {
		t.Fatalf("partial merge broken: %#v", task)
	}
}

func TestUpdateTaskNullDueDateClears(t *testing.T) {
	s := newTestServer(t)
	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	created := seedTask(t, s, domain.TaskFields{Title: "Walk dog", DueDate: &due})

	rec := s.request(t, http.MethodPatch, "/api/tasks/"+strconv.Itoa(created.ID), `{"dueDate":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var task domain.Task
	decodeJSON(t, rec, &task)
	if task.DueDate != nil {
		t.Fatalf("expected due date cleared, got %v", task.DueDate)
	}

	// Absent field leaves the value alone.
	withDue := seedTask(t, s, domain.TaskFields{Title: "Water plants", DueDate: &due})
	rec = s.request(t, http.MethodPatch, "/api/tasks/"+strconv.Itoa(withDue.ID), `{"notes":"balcony too"}`)
	decodeJSON(t, rec, &task)
	if task.DueDate == nil {
		t.Fatal("absent dueDate field must not clear the stored value")
	}
}

func TestUpdateTaskValidation(t *testing.T) {
	s := newTestServer(t)
	created := seedTask(t, s, domain.TaskFields{Title: "Walk dog"})

	cases := map[string]string{
		"empty title":      `{"title":"  "}`,
		"invalid priority": `{"priority":"urgent"}`,
	}
	for name, body := range cases {
		rec := s.request(t, http.MethodPatch, "/api/tasks/"+strconv.Itoa(created.ID), body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}

	if rec := s.request(t, http.MethodPatch, "/api/tasks/42", `{"completed":true}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing task: expected 404, got %d", rec.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	s := newTestServer(t)
	created := seedTask(t, s, domain.TaskFields{Title: "Buy milk"})

	rec := s.request(t, http.MethodDelete, "/api/tasks/"+strconv.Itoa(created.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := s.request(t, http.MethodDelete, "/api/tasks/"+strconv.Itoa(created.ID), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestToggleTaskFlipsCompletion(t *testing.T) {
	s := newTestServer(t)
	created := seedTask(t, s, domain.TaskFields{Title: "Buy milk"})

	rec := s.request(t, http.MethodPost, "/api/tasks/"+strconv.Itoa(created.ID)+"/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var task domain.Task
	decodeJSON(t, rec, &task)
	if !task.Completed {
		t.Fatal("expected task completed after toggle")
	}

	rec = s.request(t, http.MethodPost, "/api/tasks/"+strconv.Itoa(created.ID)+"/toggle", "")
	decodeJSON(t, rec, &task)
	if task.Completed {
		t.Fatal("expected task pending after second toggle")
	}
}

func TestReorderSwapsOrders(t *testing.T) {
	s := newTestServer(t)
	first := seedTask(t, s, domain.TaskFields{Title: "a"})
	second := seedTask(t, s, domain.TaskFields{Title: "b"})

	body := `{"draggedId":` + strconv.Itoa(first.ID) + `,"targetId":` + strconv.Itoa(second.ID) + `}`
	rec := s.request(t, http.MethodPost, "/api/tasks/reorder", body)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	ctx := context.Background()
	a, _ := s.tasks.GetByID(ctx, first.ID)
	b, _ := s.tasks.GetByID(ctx, second.ID)
	if a.Order != 2 || b.Order != 1 {
		t.Fatalf("orders not swapped: a=%d b=%d", a.Order, b.Order)
	}
	if s.publisher.count() != 2 {
		t.Fatalf("expected a change event per task, got %d", s.publisher.count())
	}
}

func TestReorderValidation(t *testing.T) {
	s := newTestServer(t)
	created := seedTask(t, s, domain.TaskFields{Title: "a"})

	if rec := s.request(t, http.MethodPost, "/api/tasks/reorder", `{"draggedId":0,"targetId":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero id: expected 400, got %d", rec.Code)
	}
	body := `{"draggedId":` + strconv.Itoa(created.ID) + `,"targetId":99}`
	if rec := s.request(t, http.MethodPost, "/api/tasks/reorder", body); rec.Code != http.StatusNotFound {
		t.Fatalf("missing target: expected 404, got %d", rec.Code)
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	s := newTestServer(t)
	s.publisher.fail = errors.New("queue unavailable")

	rec := s.request(t, http.MethodPost, "/api/tasks", `{"title":"Buy milk"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 despite publish failure, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	if rec := s.request(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
