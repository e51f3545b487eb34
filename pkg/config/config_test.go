package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Notifications.EnableAlerts)
	assert.Equal(t, 48, cfg.Notifications.ReminderHoursAcademic)
	assert.Equal(t, 15*time.Minute, cfg.Reminders.Interval)
	assert.Equal(t, 15*time.Second, cfg.Mail.Timeout)
	assert.Empty(t, cfg.Mail.Host)
	assert.Equal(t, 2, cfg.Queue.Workers)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("LIBRARY_EMAIL", "  library@campus.edu ")
	v.Set("REMINDER_SWEEP_INTERVAL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "https://a.edu, ,https://b.edu")

	cfg := fromViper(v)
	assert.Equal(t, "library@campus.edu", cfg.Notifications.LibraryEmail)
	assert.Equal(t, 15*time.Minute, cfg.Reminders.Interval)
	assert.Equal(t, []string{"https://a.edu", "https://b.edu"}, cfg.CORS.AllowedOrigins)
}
