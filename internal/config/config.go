package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Alerts   AlertsConfig
	Email    EmailConfig
	Rules    RulesConfig
}

type ServerConfig struct {
	Address        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	PostgresURL string
	Migrate     bool
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	GuardTTL time.Duration
}

type AlertsConfig struct {
	Enabled  bool
	Interval time.Duration
}

// EmailConfig leaves RelayURL empty to hand back compose links instead of
// sending through a relay.
type EmailConfig struct {
	RelayURL string
	Timeout  time.Duration
}

type RulesConfig struct {
	File string
}

func LoadAll() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	pgURL, err := requireEnv("POSTGRES_URL")
	collect(err)
	migrate, err := getEnvBool("DB_MIGRATE", false)
	collect(err)

	emailTimeout, err := getEnvInt("EMAIL_TIMEOUT_SECONDS", 10)
	collect(err)

	alertsEnabled, err := getEnvBool("ALERTS_ENABLED", true)
	collect(err)
	alertInterval, err := getEnvInt("ALERT_INTERVAL_SECONDS", 3600)
	collect(err)

	redisCfg, err := loadRedisConfig()
	collect(err)

	cfg := &Config{
		Server: ServerConfig{
			Address:        getEnv("SERVER_ADDRESS", ":8080"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			PostgresURL: pgURL,
			Migrate:     migrate,
		},
		Email: EmailConfig{
			RelayURL: getEnv("EMAIL_RELAY_URL", ""),
			Timeout:  time.Duration(emailTimeout) * time.Second,
		},
		Alerts: AlertsConfig{
			Enabled:  alertsEnabled,
			Interval: time.Duration(alertInterval) * time.Second,
		},
		Rules: RulesConfig{
			File: getEnv("RULES_FILE", ""),
		},
		Redis: redisCfg,
	}

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false, GuardTTL: time.Minute}, nil
	}

	var errs []error
	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, err)
	}
	ttl, err := getEnvInt("REDIS_GUARD_TTL_SECONDS", 60)
	if err != nil {
		errs = append(errs, err)
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		GuardTTL: time.Duration(ttl) * time.Second,
	}, joinErrors(errs)
}

func validate(cfg *Config) error {
	var errs []error
	if cfg.Email.Timeout <= 0 {
		errs = append(errs, errors.New("EMAIL_TIMEOUT_SECONDS must be > 0"))
	}
	if cfg.Alerts.Interval <= 0 {
		errs = append(errs, errors.New("ALERT_INTERVAL_SECONDS must be > 0"))
	}
	if cfg.Redis.Enabled && cfg.Redis.GuardTTL <= 0 {
		errs = append(errs, errors.New("REDIS_GUARD_TTL_SECONDS must be > 0"))
	}
	return joinErrors(errs)
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid bool for env %s: %s", key, v)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
