package config

import (
	"fmt"     // For DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration
type Config struct {
	AppPort       string        // Application port
	DBDriver      string        // Database driver: mysql, postgres or sqlite
	DBUser        string        // Database user
	DBPassword    string        // Database password
	DBHost        string        // Database host
	DBPort        string        // Database port
	DBName        string        // Database name (file path for sqlite)
	DBSSLMode     string        // Postgres sslmode
	JWTSecret     string        // Secret used to sign session tokens
	SessionTTL    time.Duration // Lifetime of a login session
	SessionCookie string        // Name of the session cookie
	CookieSecure  bool          // Mark the session cookie Secure
	RedisAddr     string        // Redis server address, empty keeps sessions in memory
	RedisPass     string        // Redis password
	RedisDB       int           // Redis database number
	MediaDir      string        // Directory uploaded images are written to
	MediaURL      string        // URL prefix uploaded images are served under
	CORSOrigins   []string      // Allowed CORS origins
	LogLevel      string        // Logrus level
	LogFormat     string        // text or json
	IsProd        bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:       getEnv("APP_PORT", "8000"),                        // Application port
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)), // Database driver
		DBUser:        os.Getenv("DB_USER"),                              // Database user
		DBPassword:    os.Getenv("DB_PASSWORD"),                          // Database password
		DBHost:        getEnv("DB_HOST", "127.0.0.1"),                    // Database host
		DBPort:        os.Getenv("DB_PORT"),                              // Database port
		DBName:        getEnv("DB_NAME", "keja"),                         // Database name
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),                   // Postgres sslmode
		JWTSecret:     os.Getenv("JWT_SECRET"),                           // Session token secret
		SessionTTL:    getDuration("SESSION_TTL", 14*24*time.Hour),       // Two weeks
		SessionCookie: getEnv("SESSION_COOKIE", "sessionid"),             // Session cookie name
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",              // Secure cookie flag
		RedisAddr:     os.Getenv("REDIS_ADDR"),                           // Redis server address
		RedisPass:     os.Getenv("REDIS_PASS"),                           // Redis password
		RedisDB:       redisDB,                                           // Redis database number
		MediaDir:      getEnv("MEDIA_DIR", "media"),                      // Upload directory
		MediaURL:      getEnv("MEDIA_URL", "/media/"),                    // Upload URL prefix
		CORSOrigins:   getList("CORS_ORIGINS"),                           // Allowed origins
		LogLevel:      getEnv("LOG_LEVEL", "info"),                       // Log level
		LogFormat:     getEnv("LOG_FORMAT", "text"),                      // Log format
		IsProd:        os.Getenv("IS_PROD") == "true",                    // Is production environment
	}
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() (string, error) {
	switch c.DBDriver {
	case DriverMySQL:
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true", nil
	case DriverPostgres:
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.DBHost, port, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode), nil
	case DriverSQLite:
		return c.DBName, nil // DB_NAME is the database file
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

// getEnv returns the variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses a Go duration, falling back on unset or malformed values
func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// getList splits a comma separated variable, dropping blanks
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
