package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string
	CORSOrigins string

	// MongoTransactions wraps each decision in a multi-document transaction.
	// Requires a replica set.
	MongoTransactions bool

	NotifyAsync       bool
	SMTPTimeout       time.Duration
	SMTPLocalTestPort int

	// ConsistencySweepSchedule is a standard cron expression; empty disables it.
	ConsistencySweepSchedule string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:            getEnv("DB_NAME", "go-travel"),
		SkipAuth:          getEnv("SKIP_AUTH", "false") == "true",
		Environment:       getEnv("ENVIRONMENT", "development"),
		AppId:             getEnv("APP_ID", "go-travel"),
		CORSOrigins:       getEnv("CORS_ORIGINS", "http://localhost:3000, http://localhost:5173"),
		MongoTransactions: getEnv("MONGO_TRANSACTIONS", "true") == "true",
		NotifyAsync:       getEnv("NOTIFY_ASYNC", "true") == "true",
		SMTPTimeout:       time.Duration(getEnvInt("SMTP_TIMEOUT_SECONDS", 15)) * time.Second,
		SMTPLocalTestPort: getEnvInt("SMTP_LOCAL_TEST_PORT", 1025),

		ConsistencySweepSchedule: getEnv("CONSISTENCY_SWEEP_SCHEDULE", "30 2 * * *"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return n
}
