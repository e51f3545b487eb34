package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-clearance-api/internal/dto"
	"github.com/noah-isme/transcript-clearance-api/internal/models"
	appErrors "github.com/noah-isme/transcript-clearance-api/pkg/errors"
	"github.com/noah-isme/transcript-clearance-api/pkg/response"
)

type notificationSettingsService interface {
	Get(ctx context.Context) (*models.NotificationSettings, error)
	Update(ctx context.Context, claims *models.JWTClaims, payload dto.UpdateNotificationSettingsRequest) (*models.NotificationSettings, error)
}

// NotificationSettingsHandler exposes notification settings endpoints.
type NotificationSettingsHandler struct {
	service notificationSettingsService
}

// NewNotificationSettingsHandler builds a new handler.
func NewNotificationSettingsHandler(service notificationSettingsService) *NotificationSettingsHandler {
	return &NotificationSettingsHandler{service: service}
}

// Get godoc
// @Summary Get notification settings
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notification-settings [get]
func (h *NotificationSettingsHandler) Get(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Replace notification settings
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.UpdateNotificationSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /notification-settings [put]
func (h *NotificationSettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateNotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification settings payload"))
		return
	}
	settings, err := h.service.Update(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
