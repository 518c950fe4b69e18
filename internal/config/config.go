package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultLookbackDays = 3
	MaxLookbackDays     = 30
)

type Config struct {
	Server  ServerConfig
	Collect CollectConfig
	Auth    AuthConfig
	Digest  DigestConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	CORSOrigins []string
}

type CollectConfig struct {
	LookbackDays  int
	RegistryPath  string // empty uses the embedded sources.yaml
	FrameworkPath string // empty uses the embedded frameworks.yaml
}

type AuthConfig struct {
	Username      string
	Password      string // plain, hashed at startup when PasswordHash is empty
	PasswordHash  string
	SessionSecret string
	CronSecret    string
}

type DigestConfig struct {
	ResendAPIKey string
	AlertEmail   string
	FromEmail    string
	DashboardURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, using environment")
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8081"),
			Env:         getEnv("ENV", "development"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", "http://localhost:3000"),
		},
		Collect: CollectConfig{
			LookbackDays:  ClampDays(getEnvAsInt("LOOKBACK_DAYS", DefaultLookbackDays)),
			RegistryPath:  getEnv("SOURCES_PATH", ""),
			FrameworkPath: getEnv("FRAMEWORKS_PATH", ""),
		},
		Auth: AuthConfig{
			Username:      getEnv("AUTH_USERNAME", ""),
			Password:      getEnv("AUTH_PASSWORD", ""),
			PasswordHash:  getEnv("AUTH_PASSWORD_HASH", ""),
			SessionSecret: getEnv("SESSION_SECRET", ""),
			CronSecret:    getEnv("CRON_SECRET", ""),
		},
		Digest: DigestConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			AlertEmail:   getEnv("ALERT_EMAIL", ""),
			FromEmail:    getEnv("FROM_EMAIL", "tenders@urbanchain.energy"),
			DashboardURL: getEnv("DASHBOARD_URL", ""),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// ClampDays bounds a lookback window to 1..MaxLookbackDays. Zero and
// negative values fall back to the default.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultLookbackDays
	case days > MaxLookbackDays:
		return MaxLookbackDays
	default:
		return days
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
