package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskflow-api/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, tasks domain.TaskStore, categories domain.CategoryStore, pub Publisher, logger *log.Logger) {
	e.GET("/api/tasks", listTasks(tasks, categories, logger))
	e.POST("/api/tasks", createTask(tasks, pub, logger))
	e.GET("/api/tasks/:id", getTask(tasks))
	e.PATCH("/api/tasks/:id", updateTask(tasks, pub, logger))
	e.DELETE("/api/tasks/:id", deleteTask(tasks, pub, logger))
	e.POST("/api/tasks/:id/toggle", toggleTask(tasks, pub, logger))
	e.POST("/api/tasks/reorder", reorderTasks(tasks, pub, logger))
	e.GET("/healthz", healthz())
	registerCategories(e, categories, pub, logger)
}

type tasksResponse struct {
	Tasks []domain.TaskView `json:"tasks"`
	Stats domain.Stats      `json:"stats"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// statusFor maps store and validation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func idParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// publish fires a change event without affecting the request outcome.
func publish(c echo.Context, pub Publisher, logger *log.Logger, entity, change string, id int) {
	if pub == nil {
		return
	}
	ev := domain.ChangeEvent{
		ID:         uuid.NewString(),
		EntityType: entity,
		Type:       change,
		EntityID:   id,
		Timestamp:  time.Now().UnixNano(),
	}
	if err := pub.Publish(c.Request().Context(), ev); err != nil {
		logger.WithFields(log.Fields{"entity": entity, "change": change, "id": id}).
			WithError(err).Warn("change event publish failed")
	}
}

func listTasks(tasks domain.TaskStore, categories domain.CategoryStore, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics := newListRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		spec := domain.FilterSpec{
			SearchTerm: c.QueryParam("search"),
			Priority:   c.QueryParam("priority"),
			Status:     c.QueryParam("status"),
			DueBucket:  c.QueryParam("due"),
		}
		if raw := strings.TrimSpace(c.QueryParam("category")); raw != "" {
			id, parseErr := strconv.Atoi(raw)
			if parseErr != nil || id <= 0 {
				metrics.SetErrorStage("invalid_category")
				err = c.String(http.StatusBadRequest, "invalid category")
				return err
			}
			spec.CategoryID = id
		}
		metrics.SetFiltered(spec != domain.FilterSpec{})

		fetchStart := time.Now()
		taskList, fetchErr := tasks.GetAll(ctx)
		if fetchErr == nil {
			var catList []domain.Category
			catList, fetchErr = categories.GetAll(ctx)
			if fetchErr == nil {
				metrics.ObserveFetch(time.Since(fetchStart))
				now := time.Now()
				views := domain.Query(taskList, catList, spec, now)
				metrics.SetTasksReturned(len(views))
				resp := tasksResponse{Tasks: views, Stats: domain.StatsOf(views, now)}

				encodeStart := time.Now()
				err = c.JSON(http.StatusOK, resp)
				metrics.ObserveEncode(time.Since(encodeStart))
				if err != nil {
					metrics.SetErrorStage("encode_response")
				}
				return err
			}
		}
		metrics.SetErrorStage("storage")
		c.Logger().Error(fetchErr)
		err = c.String(http.StatusInternalServerError, fetchErr.Error())
		return err
	}
}

func createTask(tasks domain.TaskStore, pub Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var fields domain.TaskFields
		if err := decodeBody(c.Request().Body, &fields); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		fields.Title = strings.TrimSpace(fields.Title)
		if fields.Title == "" {
			return c.String(http.StatusBadRequest, "title is required")
		}
		if fields.Priority != "" && !fields.Priority.Valid() {
			return c.String(http.StatusBadRequest, "invalid priority")
		}
		task, err := tasks.Create(c.Request().Context(), fields)
		if err != nil {
			c.Logger().Error(err)
			return c.String(statusFor(err), err.Error())
		}
		publish(c, pub, logger, domain.EntityTask, domain.ChangeCreated, task.ID)
		return c.JSON(http.StatusCreated, task)
	}
}

func getTask(tasks domain.TaskStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := idParam(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		task, err := tasks.GetByID(c.Request().Context(), id)
		if err != nil {
			return c.String(statusFor(err), err.Error())
		}
		return c.JSON(http.StatusOK, task)
	}
}

type taskPatch struct {
	Title      *string      `json:"title"`
	Completed  *bool        `json:"completed"`
	Priority   *string      `json:"priority"`
	DueDate    nullableTime `json:"dueDate"`
	CategoryID *int         `json:"categoryId"`
	Notes      *string      `json:"notes"`
	Order      *int         `json:"order"`
}

func (p taskPatch) toUpdate() (domain.TaskUpdate, error) {
	upd := domain.TaskUpdate{
		Completed:  p.Completed,
		CategoryID: p.CategoryID,
		Notes:      p.Notes,
		Order:      p.Order,
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return domain.TaskUpdate{}, errors.New("title must not be empty")
		}
		upd.Title = &title
	}
	if p.Priority != nil {
		prio := domain.Priority(*p.Priority)
		if !prio.Valid() {
			return domain.TaskUpdate{}, errors.New("invalid priority")
		}
		upd.Priority = &prio
	}
	if p.DueDate.set {
		if p.DueDate.value == nil {
			upd.ClearDueDate = true
		} else {
			upd.DueDate = p.DueDate.value
		}
	}
	return upd, nil
}

func updateTask(tasks domain.TaskStore, pub Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := idParam(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		var patch taskPatch
		if err := decodeBody(c.Request().Body, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		upd, err := patch.toUpdate()
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		task, err := tasks.Update(c.Request().Context(), id, upd)
		if err != nil {
			return c.String(statusFor(err), err.Error())
		}
		publish(c, pub, logger, domain.EntityTask, domain.ChangeUpdated, id)
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(tasks domain.TaskStore, pub Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := idParam(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := tasks.Delete(c.Request().Context(), id); err != nil {
			return c.String(statusFor(err), err.Error())
		}
		publish(c, pub, logger, domain.EntityTask, domain.ChangeDeleted, id)
		return c.NoContent(http.StatusNoContent)
	}
}

func toggleTask(tasks domain.TaskStore, pub Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := idParam(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		ctx := c.Request().Context()
		task, err := tasks.GetByID(ctx, id)
		if err != nil {
			return c.String(statusFor(err), err.Error())
		}
		completed := !task.Completed
		task, err = tasks.Update(ctx, id, domain.TaskUpdate{Completed: &completed})
		if err != nil {
			return c.String(statusFor(err), err.Error())
		}
		publish(c, pub, logger, domain.EntityTask, domain.ChangeUpdated, id)
		return c.JSON(http.StatusOK, task)
	}
}

type reorderRequest struct {
	DraggedID int `json:"draggedId"`
	TargetID  int `json:"targetId"`
}

func reorderTasks(tasks domain.TaskStore, pub Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req reorderRequest
		if err := decodeBody(c.Request().Body, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.DraggedID <= 0 || req.TargetID <= 0 {
			return c.String(http.StatusBadRequest, "invalid ids")
		}
		if err := domain.SwapOrder(c.Request().Context(), tasks, req.DraggedID, req.TargetID); err != nil {
			c.Logger().Error(err)
			return c.String(statusFor(err), err.Error())
		}
		publish(c, pub, logger, domain.EntityTask, domain.ChangeUpdated, req.DraggedID)
		publish(c, pub, logger, domain.EntityTask, domain.ChangeUpdated, req.TargetID)
		return c.NoContent(http.StatusNoContent)
	}
}
