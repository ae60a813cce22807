package handlers

import (
	"errors"
	"net/http"
	"strings"

	"growtasks/internal/models"
	"growtasks/internal/services"
	"growtasks/pkg/log"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService services.TaskService
	l           log.Logger
}

func NewTaskHandler(taskService services.TaskService, l log.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, l: l}
}

type createTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	DueDate     string `json:"dueDate"`
}

// updateTaskRequest is a partial update. An empty dueDate clears it.
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	DueDate     *string `json:"dueDate"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.AddTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(strings.ToLower(req.Priority)),
		Category:    models.Category(strings.ToLower(req.Category)),
	}
	if req.DueDate != "" {
		due, err := models.ParseDate(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.DueDate = &due
	}

	task, err := h.taskService.Add(c.Request.Context(), input)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.taskService.View(task))
}

// GetTasks lists active tasks, optionally only those displayed under ?category=.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	ctx := c.Request.Context()
	if raw := c.Query("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tasks := h.taskService.ActiveByCategory(ctx, category)
		c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
		return
	}

	tasks := h.taskService.Active(ctx)
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

func (h *TaskHandler) GetGroups(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"groups": h.taskService.Groups(ctx),
		"counts": h.taskService.Counts(ctx),
	})
}

func (h *TaskHandler) GetCompleted(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"days": h.taskService.CompletedByDay(c.Request.Context())})
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	task, err := h.taskService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Priority != nil {
		p := models.Priority(strings.ToLower(*req.Priority))
		input.Priority = &p
	}
	if req.Category != nil {
		cat := models.Category(strings.ToLower(*req.Category))
		input.Category = &cat
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			input.ClearDueDate = true
		} else {
			due, err := models.ParseDate(*req.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			input.DueDate = &due
		}
	}

	task, err := h.taskService.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.taskService.View(task))
}

func (h *TaskHandler) ToggleTask(c *gin.Context) {
	task, err := h.taskService.ToggleComplete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.taskService.View(task))
}

// DeleteTask moves the task to the trash.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, err := h.taskService.SoftDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.taskService.View(task))
}

func (h *TaskHandler) handleTaskError(c *gin.Context, err error) {
	handleTaskError(c, h.l, err)
}

func handleTaskError(c *gin.Context, l log.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, services.ErrEmptyTitle),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidPriority):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		l.Errorf(c.Request.Context(), "handlers %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process task request"})
	}
}
