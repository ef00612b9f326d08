package main

import (
	"context" // context package is needed for Redis operations
	"time"    // Redis ping timeout

	"keja/internal/api"     // Custom package for API handlers
	"keja/internal/config"  // Custom package for configuration
	"keja/internal/db"      // Custom package for database access
	"keja/internal/media"   // Custom package for upload storage
	"keja/internal/metrics" // Custom package for Prometheus metrics
	"keja/internal/session" // Custom package for login sessions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// sessionStore picks Redis when configured, memory otherwise
func sessionStore(cfg *config.Config) session.Store {
	if cfg.RedisAddr == "" {
		logrus.Warn("REDIS_ADDR not set, keeping sessions in memory")
		return session.NewMemoryStore()
	}
	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	return session.NewRedisStore(redisClient)
}

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	cfg.ConfigureLogging()     // Setup logger

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set") // Session tokens cannot be signed without it
	}

	// Connect to the database
	conn, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		DB:          conn,
		Sessions:    session.NewManager(sessionStore(cfg), cfg.JWTSecret, cfg.SessionTTL),
		Cookie:      api.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.CookieSecure},
		Media:       media.NewLocalStore(cfg.MediaDir, cfg.MediaURL),
		Metrics:     metrics.New(),
		MediaURL:    cfg.MediaURL,
		MediaDir:    cfg.MediaDir,
		CORSOrigins: cfg.CORSOrigins,
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":   cfg.AppPort,
		"driver": cfg.DBDriver,
	}).Info("Server running")
	if err := r.Run(":" + cfg.AppPort); err != nil { // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}
