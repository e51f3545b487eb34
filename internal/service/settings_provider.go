package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
	"github.com/noah-isme/transcript-clearance-api/pkg/config"
)

const settingsCacheKey = "notification_settings:v1"

type settingsStore interface {
	Get(ctx context.Context) (*models.NotificationSettings, error)
}

// SettingsProvider lazily loads notification settings and keeps them in
// memory until invalidated or the TTL expires. A CacheService, when enabled,
// shares the loaded row between instances.
type SettingsProvider struct {
	store    settingsStore
	defaults models.NotificationSettings
	cache    *CacheService
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	current  *models.NotificationSettings
	loadedAt time.Time
}

// SettingsProviderOption customises the provider.
type SettingsProviderOption func(*SettingsProvider)

// WithSettingsCache attaches the shared cache tier.
func WithSettingsCache(cache *CacheService) SettingsProviderOption {
	return func(p *SettingsProvider) {
		p.cache = cache
	}
}

// WithSettingsClock overrides the time source.
func WithSettingsClock(now func() time.Time) SettingsProviderOption {
	return func(p *SettingsProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// SettingsFromDefaults converts configured defaults to a settings value.
func SettingsFromDefaults(cfg config.NotificationDefaults) models.NotificationSettings {
	return models.NotificationSettings{
		EnableAlerts:           cfg.EnableAlerts,
		EnableReminders:        cfg.EnableReminders,
		EnableReminderLibrary:  cfg.EnableReminderLibrary,
		EnableReminderBursar:   cfg.EnableReminderBursar,
		EnableReminderAcademic: cfg.EnableReminderAcademic,
		LibraryEmail:           cfg.LibraryEmail,
		BursarEmail:            cfg.BursarEmail,
		AcademicEmail:          cfg.AcademicEmail,
		ProcessorEmail:         cfg.ProcessorEmail,
		ReminderHoursLibrary:   cfg.ReminderHoursLibrary,
		ReminderHoursBursar:    cfg.ReminderHoursBursar,
		ReminderHoursAcademic:  cfg.ReminderHoursAcademic,
	}
}

// NewSettingsProvider constructs the provider. A zero TTL keeps the loaded
// settings until Invalidate is called.
func NewSettingsProvider(store settingsStore, defaults config.NotificationDefaults, logger *zap.Logger, opts ...SettingsProviderOption) *SettingsProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &SettingsProvider{
		store:    store,
		defaults: SettingsFromDefaults(defaults),
		ttl:      defaults.CacheTTL,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns a copy of the current settings.
func (p *SettingsProvider) Get(ctx context.Context) (*models.NotificationSettings, error) {
	p.mu.RLock()
	if p.current != nil && p.fresh() {
		settings := *p.current
		p.mu.RUnlock()
		return &settings, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.fresh() {
		settings := *p.current
		return &settings, nil
	}

	loaded, err := p.load(ctx)
	if err != nil {
		if p.current != nil {
			p.logger.Warn("reload notification settings failed, serving stale copy", zap.Error(err))
			settings := *p.current
			return &settings, nil
		}
		return nil, err
	}
	p.current = loaded
	p.loadedAt = p.now()
	settings := *loaded
	return &settings, nil
}

// Invalidate drops the cached settings so the next Get reloads them.
func (p *SettingsProvider) Invalidate(ctx context.Context) {
	p.mu.Lock()
	p.current = nil
	p.loadedAt = time.Time{}
	p.mu.Unlock()

	if err := p.cache.Invalidate(ctx, settingsCacheKey); err != nil {
		p.logger.Warn("invalidate shared settings cache failed", zap.Error(err))
	}
}

func (p *SettingsProvider) fresh() bool {
	return p.ttl <= 0 || p.now().Sub(p.loadedAt) < p.ttl
}

func (p *SettingsProvider) load(ctx context.Context) (*models.NotificationSettings, error) {
	var cached models.NotificationSettings
	if hit, err := p.cache.Get(ctx, settingsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stored, err := p.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		defaults := p.defaults
		stored = &defaults
	}
	_ = p.cache.Set(ctx, settingsCacheKey, stored, p.ttl)
	return stored, nil
}
