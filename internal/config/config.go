package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	DatabaseURL string

	RedisURL string

	JWTSecret     string
	WebhookSecret string

	MinIOEndpoint       string
	MinIOPublicEndpoint string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOBucket         string
	MinIOUseSSL         bool
	MinIOPublicUseSSL   bool

	CORSOrigins string

	ResendAPIKey string
	FromEmail    string
	Domain       string

	LogLevel  string
	LogFormat string

	SweepInterval       time.Duration
	EmergencyRequestTTL time.Duration
	ContactsMax         int
	ContactsRadiusKm    float64

	CompatibilityRulesFile string

	Inventory InventoryConfig
}

// InventoryConfig holds blood unit shelf lives and the volumes produced by
// component separation.
type InventoryConfig struct {
	WholeBloodShelfLife time.Duration
	RBCShelfLife        time.Duration
	PlasmaShelfLife     time.Duration
	PlateletsShelfLife  time.Duration

	RBCVolume       int
	PlasmaVolume    int
	PlateletsVolume int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOPublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", getEnv("MINIO_ENDPOINT", "localhost:9000")),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:         getEnv("MINIO_BUCKET", "blood-donation"),
		MinIOUseSSL:         getBoolEnv("MINIO_USE_SSL", false),
		MinIOPublicUseSSL:   getBoolEnv("MINIO_PUBLIC_USE_SSL", true),

		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@example.com"),
		Domain:       getEnv("DOMAIN", "localhost:5173"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		SweepInterval:       getDurationEnv("SWEEP_INTERVAL", 10*time.Minute),
		EmergencyRequestTTL: getDurationEnv("EMERGENCY_REQUEST_TTL", 72*time.Hour),
		ContactsMax:         getIntEnv("CONTACTS_MAX", 20),
		ContactsRadiusKm:    getFloatEnv("CONTACTS_RADIUS_KM", 50),

		CompatibilityRulesFile: getEnv("COMPATIBILITY_RULES_FILE", ""),

		Inventory: InventoryConfig{
			WholeBloodShelfLife: getDurationEnv("WHOLE_BLOOD_SHELF_LIFE", 35*24*time.Hour),
			RBCShelfLife:        getDurationEnv("RBC_SHELF_LIFE", 42*24*time.Hour),
			PlasmaShelfLife:     getDurationEnv("PLASMA_SHELF_LIFE", 365*24*time.Hour),
			PlateletsShelfLife:  getDurationEnv("PLATELETS_SHELF_LIFE", 5*24*time.Hour),
			RBCVolume:           getIntEnv("SEPARATION_RBC_VOLUME", 200),
			PlasmaVolume:        getIntEnv("SEPARATION_PLASMA_VOLUME", 200),
			PlateletsVolume:     getIntEnv("SEPARATION_PLATELETS_VOLUME", 50),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
