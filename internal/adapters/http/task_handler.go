package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calendarease/core/internal/domain/entities"
	"github.com/calendarease/core/internal/infrastructure/logger"
	"github.com/calendarease/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	store  ports.TaskService
	loc    *time.Location
	logger *logger.Logger
}

// NewTaskHandler creates a new task handler. Dates without an offset are read in loc.
func NewTaskHandler(store ports.TaskService, loc *time.Location, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		store:  store,
		loc:    loc,
		logger: logger,
	}
}

// ListTasks godoc
// @Summary List tasks
// @Description Returns every task, or the tasks of one calendar day when date is given
// @Tags Tasks
// @Produce json
// @Param date query string false "Calendar day (YYYY-MM-DD)"
// @Success 200 {array} entities.Task
// @Failure 400 {object} ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	dateStr := c.QueryParam("date")
	if dateStr == "" {
		return c.JSON(http.StatusOK, h.store.Tasks())
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date parameter, expected YYYY-MM-DD")
	}

	return c.JSON(http.StatusOK, h.store.GetTasksForDate(date))
}

// ListReminders returns reminder-enabled tasks ordered by date
func (h *TaskHandler) ListReminders(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.TasksWithReminders())
}

// GetTask handles getting a task by ID
func (h *TaskHandler) GetTask(c echo.Context) error {
	task, ok := h.store.GetTask(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	return c.JSON(http.StatusOK, task)
}

// CreateTask godoc
// @Summary Create a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param task body CreateTaskRequest true "Task"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	date, err := parseDateTime(req.Date, h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reminder, err := parseOptionalDateTime(req.ReminderTime, h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.store.AddTask(c.Request().Context(), entities.NewTask{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Date:            date,
		Completed:       req.Completed,
		ReminderEnabled: req.ReminderEnabled,
		ReminderTime:    reminder,
		Tags:            req.Tags,
	})
	if err != nil {
		h.logger.Errorw("Create task failed", "error", err)
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Description Replaces only the fields present in the body
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param task body UpdateTaskRequest true "Fields to replace"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id := c.Param("id")

	var req UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	patch, err := h.toPatch(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.store.UpdateTask(c.Request().Context(), id, patch)
	if errors.Is(err, entities.ErrInvalidTask) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		h.logger.Errorw("Update task failed", "error", err, "task_id", id)
		return err
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}

	task, _ := h.store.GetTask(id)
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) toPatch(req UpdateTaskRequest) (entities.TaskPatch, error) {
	patch := entities.TaskPatch{
		Description:     req.Description,
		Completed:       req.Completed,
		ReminderEnabled: req.ReminderEnabled,
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return patch, fmt.Errorf("%w: title must not be empty", entities.ErrInvalidTask)
		}
		patch.Title = &title
	}
	if req.Date != nil {
		date, err := parseDateTime(*req.Date, h.loc)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
	}
	if req.ReminderTime.Set {
		reminder, err := parseOptionalDateTime(req.ReminderTime.Value, h.loc)
		if err != nil {
			return patch, err
		}
		patch.ReminderTime = reminder
		patch.ReminderTimeSet = true
	}
	if req.Tags != nil {
		patch.Tags = *req.Tags
		patch.TagsSet = true
	}

	return patch, nil
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Deletes the task and every voice note attached to it
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id := c.Param("id")

	deleted, err := h.store.DeleteTask(c.Request().Context(), id)
	if err != nil {
		h.logger.Errorw("Delete task failed", "error", err, "task_id", id)
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// ListTaskVoiceNotes returns the voice notes attached to a task
func (h *TaskHandler) ListTaskVoiceNotes(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.store.GetTask(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	return c.JSON(http.StatusOK, h.store.GetVoiceNotesForTask(id))
}
