// Package config carga la configuración desde YAML con overrides por ENV.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
		// Idioma de los mensajes al usuario final (en | ko).
		Lang string `yaml:"lang"`
	} `yaml:"app"`

	Log struct {
		// debug | info | warn | error
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// redis | memory
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	SMTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		From string `yaml:"from"`
		User string `yaml:"user"`
		Pass string `yaml:"pass"`
		// auto | starttls | ssl | none
		TLSMode            string `yaml:"tls_mode"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
		// BaseURL para armar los links de verificación en los emails.
		BaseURL string `yaml:"base_url"`
	} `yaml:"smtp"`

	Outbox struct {
		Enabled         bool          `yaml:"enabled"`
		MaxRetryCount   int           `yaml:"max_retry_count"`
		RetentionDays   int           `yaml:"retention_days"`
		SweepInterval   time.Duration `yaml:"sweep_interval"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
		StatsInterval   time.Duration `yaml:"stats_interval"`
		WorkerCount     int           `yaml:"worker_count"`
		SendTimeout     time.Duration `yaml:"send_timeout"`
	} `yaml:"outbox"`

	Verification struct {
		Expiration time.Duration `yaml:"expiration"`
		Resend     struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"resend"`
	} `yaml:"verification"`
}

// Load lee el YAML (si existe), aplica defaults y overrides por ENV.
// path vacío es válido: queda todo en defaults + ENV.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Lang == "" {
		c.App.Lang = "en"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.From == "" {
		c.SMTP.From = "noreply@boardhole.com"
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}
	if c.SMTP.BaseURL == "" {
		c.SMTP.BaseURL = "http://localhost:8080"
	}
	if c.Outbox.MaxRetryCount == 0 {
		c.Outbox.MaxRetryCount = 10
	}
	if c.Outbox.RetentionDays == 0 {
		c.Outbox.RetentionDays = 30
	}
	if c.Outbox.SweepInterval == 0 {
		c.Outbox.SweepInterval = 5 * time.Minute
	}
	if c.Outbox.CleanupInterval == 0 {
		c.Outbox.CleanupInterval = 24 * time.Hour
	}
	if c.Outbox.StatsInterval == 0 {
		c.Outbox.StatsInterval = time.Hour
	}
	if c.Outbox.WorkerCount == 0 {
		c.Outbox.WorkerCount = 4
	}
	if c.Outbox.SendTimeout == 0 {
		c.Outbox.SendTimeout = 30 * time.Second
	}
	if c.Verification.Expiration == 0 {
		c.Verification.Expiration = 24 * time.Hour
	}
	if c.Verification.Resend.Limit == 0 {
		c.Verification.Resend.Limit = 5
	}
	if c.Verification.Resend.Window == 0 {
		c.Verification.Resend.Window = 10 * time.Minute
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_LANG"); ok {
		c.App.Lang = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.User = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Pass = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.SMTP.TLSMode = v
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}
	if v, ok := getEnvStr("SMTP_BASE_URL"); ok {
		c.SMTP.BaseURL = v
	}

	// OUTBOX
	if v, ok := getEnvBool("OUTBOX_ENABLED"); ok {
		c.Outbox.Enabled = v
	}
	if v, ok := getEnvInt("OUTBOX_MAX_RETRY_COUNT"); ok {
		c.Outbox.MaxRetryCount = v
	}
	if v, ok := getEnvInt("OUTBOX_RETENTION_DAYS"); ok {
		c.Outbox.RetentionDays = v
	}
	if v, ok := getEnvDur("OUTBOX_SWEEP_INTERVAL"); ok {
		c.Outbox.SweepInterval = v
	}
	if v, ok := getEnvDur("OUTBOX_CLEANUP_INTERVAL"); ok {
		c.Outbox.CleanupInterval = v
	}
	if v, ok := getEnvDur("OUTBOX_STATS_INTERVAL"); ok {
		c.Outbox.StatsInterval = v
	}
	if v, ok := getEnvInt("OUTBOX_WORKER_COUNT"); ok {
		c.Outbox.WorkerCount = v
	}
	if v, ok := getEnvDur("OUTBOX_SEND_TIMEOUT"); ok {
		c.Outbox.SendTimeout = v
	}

	// VERIFICATION
	if v, ok := getEnvDur("VERIFICATION_EXPIRATION"); ok {
		c.Verification.Expiration = v
	}
	if v, ok := getEnvInt("VERIFICATION_RESEND_LIMIT"); ok {
		c.Verification.Resend.Limit = v
	}
	if v, ok := getEnvDur("VERIFICATION_RESEND_WINDOW"); ok {
		c.Verification.Resend.Window = v
	}
}

// Validate chequea rangos inválidos que no admiten default razonable.
func (c *Config) Validate() error {
	if c.Outbox.MaxRetryCount < 1 {
		return fmt.Errorf("config: outbox.max_retry_count must be >= 1 (got %d)", c.Outbox.MaxRetryCount)
	}
	if c.Outbox.RetentionDays < 0 {
		return fmt.Errorf("config: outbox.retention_days must be >= 0 (got %d)", c.Outbox.RetentionDays)
	}
	if c.Verification.Expiration < 0 {
		return fmt.Errorf("config: verification.expiration must be >= 0 (got %s)", c.Verification.Expiration)
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func getEnvBool(key string) (bool, bool) {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return false, false
	}
	return v == "1" || v == "true" || v == "yes", true
}

func getEnvDur(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
