package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/internal/repository"
	"github.com/noah-isme/transcript-clearance-api/internal/service"
	"github.com/noah-isme/transcript-clearance-api/pkg/cache"
	"github.com/noah-isme/transcript-clearance-api/pkg/config"
	"github.com/noah-isme/transcript-clearance-api/pkg/database"
	"github.com/noah-isme/transcript-clearance-api/pkg/mailer"
)

// application holds the wired service graph shared by every command.
type application struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	redis  *redis.Client

	metrics    *service.MetricsService
	requests   *repository.TranscriptRequestRepository
	audit      *repository.AuditEventRepository
	cacheRepo  *repository.CacheRepository
	settings   *service.SettingsProvider
	notifier   *service.WorkflowNotifier
	dispatcher *service.NotificationDispatcher

	auth            *service.AuthService
	transcripts     *service.TranscriptRequestService
	settingsService *service.NotificationSettingsService
	exports         *service.ExportService
	scheduler       *service.ReminderScheduler
}

func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, settings cache limited to memory", zap.Error(err))
		redisClient = nil
	}

	app := &application{cfg: cfg, logger: logger, db: db, redis: redisClient}
	app.metrics = service.NewMetricsService()

	app.requests = repository.NewTranscriptRequestRepository(db)
	app.audit = repository.NewAuditEventRepository(db)
	settingsRepo := repository.NewNotificationSettingsRepository(db)
	app.cacheRepo = repository.NewCacheRepository(redisClient, logger)

	cacheSvc := service.NewCacheService(app.cacheRepo, app.metrics, cfg.Notifications.CacheTTL, logger, redisClient != nil)
	app.settings = service.NewSettingsProvider(settingsRepo, cfg.Notifications, logger, service.WithSettingsCache(cacheSvc))

	app.notifier = service.NewWorkflowNotifier(app.requests, app.audit, app.settings, mailer.New(cfg.Mail, logger), logger,
		service.WithNotifierMetrics(app.metrics))
	app.dispatcher = service.NewNotificationDispatcher(cfg.Queue.Workers, cfg.Queue.BufferSize, app.metrics, logger)

	validate := validator.New()
	app.auth = service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, logger)
	app.transcripts = service.NewTranscriptRequestService(app.requests, app.audit, app.notifier, app.dispatcher, validate, logger)
	app.settingsService = service.NewNotificationSettingsService(settingsRepo, app.settings, validate, logger)
	app.exports = service.NewExportService(app.requests, logger, nil, nil)
	app.scheduler = service.NewReminderScheduler(app.notifier, cfg.Reminders.Interval, cfg.Reminders.SweepTimeout, logger)

	return app, nil
}

func (a *application) Close() {
	if a.cacheRepo != nil {
		if err := a.cacheRepo.Close(); err != nil {
			a.logger.Warn("close redis failed", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close postgres failed", zap.Error(err))
		}
	}
}
