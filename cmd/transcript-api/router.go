package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/transcript-clearance-api/api/swagger"
	"github.com/noah-isme/transcript-clearance-api/internal/handler"
	"github.com/noah-isme/transcript-clearance-api/internal/middleware"
	"github.com/noah-isme/transcript-clearance-api/internal/models"
	"github.com/noah-isme/transcript-clearance-api/internal/service"
	"github.com/noah-isme/transcript-clearance-api/pkg/config"
	"github.com/noah-isme/transcript-clearance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/transcript-clearance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/transcript-clearance-api/pkg/middleware/requestid"
)

type routerDeps struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService
	auth    middleware.TokenValidator
	journal middleware.AuditAppender

	transcripts *handler.TranscriptRequestHandler
	settings    *handler.NotificationSettingsHandler
	reminders   *handler.ReminderHandler
	ops         *handler.MetricsHandler
}

func newRouter(deps routerDeps) *gin.Engine {
	if deps.cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.logger))
	r.Use(corsmiddleware.New(deps.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics"))

	r.GET("/health", deps.ops.Health)
	r.GET("/ready", deps.ops.Ready)
	r.GET("/metrics", deps.ops.Prometheus)
	if deps.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(deps.auth))

	requests := api.Group("/transcript-requests")
	requests.POST("", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin), deps.transcripts.Create)
	requests.GET("", middleware.RequireStaff(), deps.transcripts.List)
	requests.GET("/export", middleware.RequireStaff(), deps.transcripts.Export)
	requests.GET("/:id", deps.transcripts.Get)
	requests.GET("/:id/audit", middleware.RequireStaff(), deps.transcripts.Audit)
	requests.GET("/:id/clearance-slip", middleware.RequireStaff(), deps.transcripts.ClearanceSlip)
	requests.PATCH("/:id/departments/:department",
		middleware.RequireReviewer(),
		middleware.Audit(deps.journal, models.AuditActionDepartmentDecisionRecorded, deps.logger),
		deps.transcripts.UpdateDepartment)
	requests.PATCH("/:id/status",
		middleware.RequireRoles(models.RoleProcessor, models.RoleAdmin),
		middleware.Audit(deps.journal, models.AuditActionRequestStatusChanged, deps.logger),
		deps.transcripts.UpdateStatus)

	admin := api.Group("", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/notification-settings", deps.settings.Get)
	admin.PUT("/notification-settings", deps.settings.Update)
	admin.POST("/notifications/reminders/sweep", deps.reminders.Sweep)

	return r
}

func routerDepsFor(app *application) routerDeps {
	return routerDeps{
		cfg:         app.cfg,
		logger:      app.logger,
		metrics:     app.metrics,
		auth:        app.auth,
		journal:     app.audit,
		transcripts: handler.NewTranscriptRequestHandler(app.transcripts, app.exports),
		settings:    handler.NewNotificationSettingsHandler(app.settingsService),
		reminders:   handler.NewReminderHandler(app.notifier),
		ops: handler.NewMetricsHandler(app.metrics, map[string]handler.Pinger{
			"postgres": app.db,
			"redis":    handler.PingerFunc(app.cacheRepo.Ping),
		}),
	}
}
