package handlers

import (
	"growtasks/internal/services"
	"growtasks/pkg/log"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the task API under /api/v1.
func RegisterRoutes(r gin.IRouter, taskService services.TaskService, exporter Exporter, l log.Logger) {
	tasks := NewTaskHandler(taskService, l)
	trash := NewTrashHandler(taskService, l)
	stats := NewStatsHandler(taskService, exporter, l)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/tasks", tasks.CreateTask)
		v1.GET("/tasks", tasks.GetTasks)
		v1.GET("/tasks/groups", tasks.GetGroups)
		v1.GET("/tasks/completed", tasks.GetCompleted)
		v1.GET("/tasks/:id", tasks.GetTaskByID)
		v1.PATCH("/tasks/:id", tasks.UpdateTask)
		v1.POST("/tasks/:id/toggle", tasks.ToggleTask)
		v1.DELETE("/tasks/:id", tasks.DeleteTask)

		v1.GET("/trash", trash.GetTrash)
		v1.DELETE("/trash", trash.ClearTrash)
		v1.POST("/trash/:id/restore", trash.RestoreTask)
		v1.DELETE("/trash/:id", trash.PurgeTask)

		v1.GET("/stats/today", stats.TodayStats)
		v1.GET("/garden", stats.Garden)
		v1.GET("/export", stats.Export)
	}
}
