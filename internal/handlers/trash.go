package handlers

import (
	"net/http"

	"growtasks/internal/services"
	"growtasks/pkg/log"

	"github.com/gin-gonic/gin"
)

type TrashHandler struct {
	taskService services.TaskService
	l           log.Logger
}

func NewTrashHandler(taskService services.TaskService, l log.Logger) *TrashHandler {
	return &TrashHandler{taskService: taskService, l: l}
}

func (h *TrashHandler) GetTrash(c *gin.Context) {
	tasks := h.taskService.Deleted(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

func (h *TrashHandler) RestoreTask(c *gin.Context) {
	task, err := h.taskService.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleTaskError(c, h.l, err)
		return
	}
	c.JSON(http.StatusOK, h.taskService.View(task))
}

func (h *TrashHandler) PurgeTask(c *gin.Context) {
	if err := h.taskService.PermanentlyDelete(c.Request.Context(), c.Param("id")); err != nil {
		handleTaskError(c, h.l, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TrashHandler) ClearTrash(c *gin.Context) {
	removed, err := h.taskService.ClearTrash(c.Request.Context())
	if err != nil {
		handleTaskError(c, h.l, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
