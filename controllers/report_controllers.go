package controllers

import (
	"net/http"

	"github.com/emenuapi/emenu-backend/tasks"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
)

type ReportController struct {
	Queue tasks.Queue
}

func NewReportController(queue tasks.Queue) *ReportController {
	return &ReportController{Queue: queue}
}

// SendDishReport queues the daily dish report to run now.
func (rc *ReportController) SendDishReport(c *gin.Context) {
	task := tasks.NewTask(tasks.ReportDishesTask)
	if err := rc.Queue.Enqueue(c.Request.Context(), task); err != nil {
		utils.ErrorLogger.WithError(err).Error("Failed to enqueue dish report")
		utils.RespondDetail(c, http.StatusServiceUnavailable, "Task queue unavailable.")
		return
	}

	utils.RespondJSON(c, http.StatusAccepted, gin.H{
		"task_id": task.ID,
		"task":    task.Name,
	})
}
