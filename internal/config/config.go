package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	AppName     string

	MongoURI               string
	DBName                 string
	MongoMaxPoolSize       uint64
	MongoConnectTimeout    time.Duration
	MongoSocketTimeout     time.Duration
	MongoTransactions      bool
	MongoReconnectAttempts int

	JWTSecret string
	JWTExpire time.Duration
	SkipAuth  bool

	AllowedOrigins string

	UploadDriver string // local or gridfs
	FSPath       string // Physical directory for file uploads
	FSURL        string // URL path prefix for file access

	LogFile  string
	LogLevel string

	Currency string
	PDFFont  string // optional UTF-8 TrueType font for PDF reports

	CronReconcile     string
	CronExpiry        string
	ExpiryWarningDays int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	environment := getEnv("ENVIRONMENT", "development")

	jwtExpire, err := ParseDuration(getEnv("JWT_EXPIRE", "30d"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRE: %w", err)
	}
	connectTimeout, err := time.ParseDuration(getEnv("MONGO_CONNECT_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("MONGO_CONNECT_TIMEOUT: %w", err)
	}
	socketTimeout, err := time.ParseDuration(getEnv("MONGO_SOCKET_TIMEOUT", "45s"))
	if err != nil {
		return nil, fmt.Errorf("MONGO_SOCKET_TIMEOUT: %w", err)
	}

	skipAuth := getEnv("SKIP_AUTH", "false") == "true"
	if skipAuth && environment == "production" {
		return nil, fmt.Errorf("SKIP_AUTH cannot be enabled in production")
	}

	uploadDriver := "local"
	if environment == "production" {
		uploadDriver = "gridfs"
	}

	return &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: environment,
		AppName:     getEnv("APP_NAME", "Charity Association"),

		MongoURI:               getEnv("MONGODB_URI", "mongodb://localhost:27017/charity-db"),
		DBName:                 getEnv("DB_NAME", "charity-db"),
		MongoMaxPoolSize:       uint64(getEnvInt("MONGO_MAX_POOL_SIZE", 10)),
		MongoConnectTimeout:    connectTimeout,
		MongoSocketTimeout:     socketTimeout,
		MongoTransactions:      getEnv("MONGO_TRANSACTIONS", "true") == "true",
		MongoReconnectAttempts: getEnvInt("MONGO_RECONNECT_ATTEMPTS", 5),

		JWTSecret: getEnv("JWT_SECRET", "secret"),
		JWTExpire: jwtExpire,
		SkipAuth:  skipAuth,

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		UploadDriver: getEnv("UPLOAD_DRIVER", uploadDriver),
		FSPath:       getEnv("FS_PATH", "./uploads"),
		FSURL:        getEnv("FS_URL", "/uploads"),

		LogFile:  getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		Currency: getEnv("CURRENCY", "SAR"),
		PDFFont:  getEnv("PDF_FONT", ""),

		CronReconcile:     getEnv("CRON_RECONCILE", "0 2 * * *"),
		CronExpiry:        getEnv("CRON_EXPIRY", "0 7 * * *"),
		ExpiryWarningDays: getEnvInt("EXPIRY_WARNING_DAYS", 30),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ParseDuration accepts Go durations plus a "d" suffix for whole days ("30d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", s)
	}
	return d, nil
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
		log.Printf("Invalid integer for %s, using %d", key, fallback)
		return fallback
	}
	return n
}
