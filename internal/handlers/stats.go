package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"growtasks/internal/services"
	"growtasks/pkg/log"

	"github.com/gin-gonic/gin"
)

// Exporter writes the task collection.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) error
}

type StatsHandler struct {
	taskService services.TaskService
	exporter    Exporter
	l           log.Logger
}

func NewStatsHandler(taskService services.TaskService, exporter Exporter, l log.Logger) *StatsHandler {
	return &StatsHandler{taskService: taskService, exporter: exporter, l: l}
}

func (h *StatsHandler) TodayStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.taskService.TodayStats(c.Request.Context()))
}

func (h *StatsHandler) Garden(c *gin.Context) {
	c.JSON(http.StatusOK, h.taskService.Garden(c.Request.Context()))
}

// Export sends the task collection as a JSON attachment.
func (h *StatsHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exporter.Export(c.Request.Context(), &buf); err != nil {
		h.l.Errorf(c.Request.Context(), "handlers.Export: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export tasks"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="growtasks-export.json"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}
