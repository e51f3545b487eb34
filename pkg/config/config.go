package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Mail          MailConfig
	Notifications NotificationDefaults
	Reminders     ReminderConfig
	Queue         QueueConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify bearer tokens minted by
// the campus identity provider.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig configures the SMTP notification channel. An empty Host selects
// the logging channel.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SSL      bool
	Timeout  time.Duration
}

// NotificationDefaults seeds notification settings until an administrator
// saves a settings row.
type NotificationDefaults struct {
	EnableAlerts           bool
	EnableReminders        bool
	EnableReminderLibrary  bool
	EnableReminderBursar   bool
	EnableReminderAcademic bool
	LibraryEmail           string
	BursarEmail            string
	AcademicEmail          string
	ProcessorEmail         string
	ReminderHoursLibrary   int
	ReminderHoursBursar    int
	ReminderHoursAcademic  int
	CacheTTL               time.Duration
}

// ReminderConfig drives the in-process reminder sweep scheduler.
type ReminderConfig struct {
	SchedulerEnabled bool
	Interval         time.Duration
	SweepTimeout     time.Duration
}

// QueueConfig sizes the status notification worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		Host:     strings.TrimSpace(v.GetString("SMTP_HOST")),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("MAIL_FROM"),
		SSL:      v.GetBool("SMTP_SSL"),
		Timeout:  parseDuration(v.GetString("SMTP_TIMEOUT"), 15*time.Second),
	}

	cfg.Notifications = NotificationDefaults{
		EnableAlerts:           v.GetBool("ENABLE_ALERTS"),
		EnableReminders:        v.GetBool("ENABLE_REMINDERS"),
		EnableReminderLibrary:  v.GetBool("ENABLE_REMINDER_LIBRARY"),
		EnableReminderBursar:   v.GetBool("ENABLE_REMINDER_BURSAR"),
		EnableReminderAcademic: v.GetBool("ENABLE_REMINDER_ACADEMIC"),
		LibraryEmail:           strings.TrimSpace(v.GetString("LIBRARY_EMAIL")),
		BursarEmail:            strings.TrimSpace(v.GetString("BURSAR_EMAIL")),
		AcademicEmail:          strings.TrimSpace(v.GetString("ACADEMIC_EMAIL")),
		ProcessorEmail:         strings.TrimSpace(v.GetString("PROCESSOR_EMAIL")),
		ReminderHoursLibrary:   v.GetInt("REMINDER_HOURS_LIBRARY"),
		ReminderHoursBursar:    v.GetInt("REMINDER_HOURS_BURSAR"),
		ReminderHoursAcademic:  v.GetInt("REMINDER_HOURS_ACADEMIC"),
		CacheTTL:               parseDuration(v.GetString("SETTINGS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Reminders = ReminderConfig{
		SchedulerEnabled: v.GetBool("ENABLE_REMINDER_SCHEDULER"),
		Interval:         parseDuration(v.GetString("REMINDER_SWEEP_INTERVAL"), 15*time.Minute),
		SweepTimeout:     parseDuration(v.GetString("REMINDER_SWEEP_TIMEOUT"), 5*time.Minute),
	}

	cfg.Queue = QueueConfig{
		Workers:    v.GetInt("NOTIFICATION_WORKERS"),
		BufferSize: v.GetInt("NOTIFICATION_QUEUE_SIZE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "transcript_clearance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_SSL", false)
	v.SetDefault("SMTP_TIMEOUT", "15s")
	v.SetDefault("MAIL_FROM", "transcripts@localhost")

	v.SetDefault("ENABLE_ALERTS", true)
	v.SetDefault("ENABLE_REMINDERS", true)
	v.SetDefault("ENABLE_REMINDER_LIBRARY", true)
	v.SetDefault("ENABLE_REMINDER_BURSAR", true)
	v.SetDefault("ENABLE_REMINDER_ACADEMIC", true)
	v.SetDefault("LIBRARY_EMAIL", "")
	v.SetDefault("BURSAR_EMAIL", "")
	v.SetDefault("ACADEMIC_EMAIL", "")
	v.SetDefault("PROCESSOR_EMAIL", "")
	v.SetDefault("REMINDER_HOURS_LIBRARY", 48)
	v.SetDefault("REMINDER_HOURS_BURSAR", 48)
	v.SetDefault("REMINDER_HOURS_ACADEMIC", 48)
	v.SetDefault("SETTINGS_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_REMINDER_SCHEDULER", false)
	v.SetDefault("REMINDER_SWEEP_INTERVAL", "15m")
	v.SetDefault("REMINDER_SWEEP_TIMEOUT", "5m")

	v.SetDefault("NOTIFICATION_WORKERS", 2)
	v.SetDefault("NOTIFICATION_QUEUE_SIZE", 64)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
