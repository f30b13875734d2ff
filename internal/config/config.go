package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the remote store server's configuration.
type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string
	AuthRateRPS   float64
	AuthRateBurst int
}

func Load() Config {
	return Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/shifttrack.db"),
		JWTSecret:     getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		AuthRateRPS:   getEnvFloat("AUTH_RATE_RPS", 1),
		AuthRateBurst: getEnvInt("AUTH_RATE_BURST", 5),
	}
}

const (
	BackendAPI       = "api"
	BackendFirestore = "firestore"

	LocalStoreFile  = "file"
	LocalStoreRedis = "redis"
)

// ClientConfig is the terminal tracker's configuration.
type ClientConfig struct {
	Backend string

	APIURL   string
	Email    string
	Password string
	Token    string

	FirestoreProjectID string
	CredentialsFile    string
	UserID             string

	LocalStore     string
	LocalStorePath string
	LocalStoreKey  string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	SyncTimeout time.Duration
}

func LoadClient() ClientConfig {
	return ClientConfig{
		Backend:            getEnv("TRACKER_BACKEND", BackendAPI),
		APIURL:             strings.TrimSuffix(getEnv("TRACKER_API_URL", "http://localhost:8080"), "/"),
		Email:              getEnv("TRACKER_EMAIL", ""),
		Password:           getEnv("TRACKER_PASSWORD", ""),
		Token:              getEnv("TRACKER_TOKEN", ""),
		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),
		CredentialsFile:    getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		UserID:             getEnv("TRACKER_USER_ID", ""),
		LocalStore:         getEnv("LOCAL_STORE", LocalStoreFile),
		LocalStorePath:     getEnv("LOCAL_STORE_PATH", "./data/shift-track-entry.json"),
		LocalStoreKey:      getEnv("LOCAL_STORE_KEY", "shift-track-entry"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		SyncTimeout:        time.Duration(getEnvInt("SYNC_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
