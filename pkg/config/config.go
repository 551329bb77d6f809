package config

import (
	"errors"
	"os"
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

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Attendance AttendanceConfig
	Payroll    PayrollConfig
	Uploads    UploadsConfig
	Reports    ReportsConfig
	Dashboard  DashboardConfig
	Metrics    MetricsConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig tunes check-in/check-out behaviour.
type AttendanceConfig struct {
	Timezone string
	// StandardHours is the shift length beyond which checkout records overtime. Zero disables it.
	StandardHours float64
}

// Location resolves the configured timezone, falling back to UTC.
func (c AttendanceConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PayrollConfig holds payroll arithmetic constants.
type PayrollConfig struct {
	OvertimeRate   float64
	RunConcurrency int
}

// UploadsConfig controls attachment storage & validation.
type UploadsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	MaxFileSizeBytes  int64
	MaxFiles          int
	AllowedExtensions []string
}

// ReportsConfig configures asynchronous report generation.
type ReportsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Attendance = AttendanceConfig{
		Timezone:      v.GetString("ATTENDANCE_TIMEZONE"),
		StandardHours: v.GetFloat64("ATTENDANCE_STANDARD_HOURS"),
	}

	cfg.Payroll = PayrollConfig{
		OvertimeRate:   v.GetFloat64("PAYROLL_OVERTIME_RATE"),
		RunConcurrency: v.GetInt("PAYROLL_RUN_CONCURRENCY"),
	}

	maxUploadMB := v.GetInt64("UPLOAD_MAX_SIZE_MB")
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:        v.GetString("UPLOAD_DIR"),
		SignedURLSecret:   v.GetString("UPLOAD_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("UPLOAD_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes:  maxUploadMB * 1024 * 1024,
		MaxFiles:          v.GetInt("UPLOAD_MAX_FILES"),
		AllowedExtensions: splitAndTrim(v.GetString("UPLOAD_ALLOWED_EXTENSIONS")),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:        v.GetString("EXPORT_DIR"),
		SignedURLSecret:   v.GetString("EXPORT_SIGNING_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORT_RESULT_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORT_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORT_WORKERS"),
		WorkerRetries:     v.GetInt("REPORT_MAX_RETRIES"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("CACHE_DASHBOARD_TTL"), 5*time.Minute),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("METRICS_ENABLED")}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const (
	devUploadsSecret = "dev_uploads_secret"
	devExportsSecret = "dev_exports_secret"
)

// validate rejects production configs that still sign download links with
// the development secrets.
func (c *Config) validate() error {
	if c.Env != EnvProduction {
		return nil
	}
	if c.Uploads.SignedURLSecret == devUploadsSecret || c.Uploads.SignedURLSecret == "" {
		return errors.New("UPLOAD_SIGNED_URL_SECRET must be set in production")
	}
	if c.Reports.SignedURLSecret == devExportsSecret || c.Reports.SignedURLSecret == "" {
		return errors.New("EXPORT_SIGNING_SECRET must be set in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hrms")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ATTENDANCE_TIMEZONE", "UTC")
	v.SetDefault("ATTENDANCE_STANDARD_HOURS", 0)
	v.SetDefault("PAYROLL_OVERTIME_RATE", 100)
	v.SetDefault("PAYROLL_RUN_CONCURRENCY", 4)

	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("UPLOAD_SIGNED_URL_SECRET", devUploadsSecret)
	v.SetDefault("UPLOAD_SIGNED_URL_TTL", "30m")
	v.SetDefault("UPLOAD_MAX_SIZE_MB", 5)
	v.SetDefault("UPLOAD_MAX_FILES", 3)
	v.SetDefault("UPLOAD_ALLOWED_EXTENSIONS", "jpg,jpeg,png,pdf")

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_SIGNING_SECRET", devExportsSecret)
	v.SetDefault("EXPORT_RESULT_TTL", "24h")
	v.SetDefault("EXPORT_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORT_WORKERS", 1)
	v.SetDefault("REPORT_MAX_RETRIES", 3)

	v.SetDefault("CACHE_DASHBOARD_TTL", "5m")
	v.SetDefault("METRICS_ENABLED", true)
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
