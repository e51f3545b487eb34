package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-clearance-api/internal/service"
	"github.com/noah-isme/transcript-clearance-api/pkg/response"
)

type reminderSweeper interface {
	SendReminderSweep(ctx context.Context) service.SweepReport
}

// ReminderHandler triggers reminder sweeps on demand.
type ReminderHandler struct {
	sweeper reminderSweeper
}

// NewReminderHandler builds a new handler.
func NewReminderHandler(sweeper reminderSweeper) *ReminderHandler {
	return &ReminderHandler{sweeper: sweeper}
}

// Sweep godoc
// @Summary Run a reminder sweep now
// @Description Always responds 200; the report carries per department outcomes.
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/reminders/sweep [post]
func (h *ReminderHandler) Sweep(c *gin.Context) {
	report := h.sweeper.SendReminderSweep(c.Request.Context())
	response.JSON(c, http.StatusOK, report, nil)
}
