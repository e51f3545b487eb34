package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/internal/dto"
	"github.com/noah-isme/transcript-clearance-api/internal/models"
	appErrors "github.com/noah-isme/transcript-clearance-api/pkg/errors"
)

type notificationSettingsWriter interface {
	Upsert(ctx context.Context, settings *models.NotificationSettings) error
}

type settingsCache interface {
	Get(ctx context.Context) (*models.NotificationSettings, error)
	Invalidate(ctx context.Context)
}

// NotificationSettingsService reads and replaces notification settings.
type NotificationSettingsService struct {
	repo      notificationSettingsWriter
	provider  settingsCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationSettingsService constructs the service.
func NewNotificationSettingsService(repo notificationSettingsWriter, provider settingsCache, validate *validator.Validate, logger *zap.Logger) *NotificationSettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationSettingsService{repo: repo, provider: provider, validator: validate, logger: logger}
}

// Get returns the effective settings.
func (s *NotificationSettingsService) Get(ctx context.Context) (*models.NotificationSettings, error) {
	settings, err := s.provider.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification settings")
	}
	return settings, nil
}

// Update saves the settings and invalidates the cached copy.
func (s *NotificationSettingsService) Update(ctx context.Context, claims *models.JWTClaims, payload dto.UpdateNotificationSettingsRequest) (*models.NotificationSettings, error) {
	payload.LibraryEmail = strings.TrimSpace(payload.LibraryEmail)
	payload.BursarEmail = strings.TrimSpace(payload.BursarEmail)
	payload.AcademicEmail = strings.TrimSpace(payload.AcademicEmail)
	payload.ProcessorEmail = strings.TrimSpace(payload.ProcessorEmail)
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification settings payload")
	}

	settings := &models.NotificationSettings{
		EnableAlerts:           *payload.EnableAlerts,
		EnableReminders:        *payload.EnableReminders,
		EnableReminderLibrary:  *payload.EnableReminderLibrary,
		EnableReminderBursar:   *payload.EnableReminderBursar,
		EnableReminderAcademic: *payload.EnableReminderAcademic,
		LibraryEmail:           payload.LibraryEmail,
		BursarEmail:            payload.BursarEmail,
		AcademicEmail:          payload.AcademicEmail,
		ProcessorEmail:         payload.ProcessorEmail,
		ReminderHoursLibrary:   payload.ReminderHoursLibrary,
		ReminderHoursBursar:    payload.ReminderHoursBursar,
		ReminderHoursAcademic:  payload.ReminderHoursAcademic,
	}
	if claims != nil && claims.UserID != "" {
		updatedBy := claims.UserID
		settings.UpdatedBy = &updatedBy
	}

	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save notification settings")
	}
	s.provider.Invalidate(ctx)
	s.logger.Info("notification settings updated",
		zap.Bool("enable_alerts", settings.EnableAlerts),
		zap.Bool("enable_reminders", settings.EnableReminders),
	)
	return settings, nil
}
