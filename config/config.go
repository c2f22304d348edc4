package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// HTTP API configuration
	ListenAddr string

	// Storage configuration
	DatabasePath string

	// Scraper configuration
	UserAgent      string
	BaseDelay      time.Duration
	FetchTimeout   time.Duration
	RobotsTimeout  time.Duration
	ResultCacheTTL time.Duration

	// Memcache configuration (optional; falls back to in-process cache)
	MemcacheAddr string

	// Redis configuration (optional; dispatch events are dropped when empty)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Scheduler configuration
	SchedulerInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "500"))
	baseDelayMs, _ := strconv.Atoi(getEnv("SCRAPE_BASE_DELAY_MS", "500"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "10"))
	robotsTimeout, _ := strconv.Atoi(getEnv("ROBOTS_TIMEOUT_SECONDS", "5"))
	cacheTTL, _ := strconv.Atoi(getEnv("RESULT_CACHE_TTL_SECONDS", "600"))
	schedInterval, _ := strconv.Atoi(getEnv("SCHEDULER_INTERVAL_SECONDS", "60"))

	return Config{
		ListenAddr:           getEnv("LISTEN_ADDR", ":8085"),
		DatabasePath:         getEnv("DATABASE_PATH", "data/mailscheduler.sqlite"),
		UserAgent:            getEnv("SCRAPER_USER_AGENT", "MailSchedulerBot/1.0 (+https://coastweb.example/bot)"),
		BaseDelay:            time.Duration(baseDelayMs) * time.Millisecond,
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		RobotsTimeout:        time.Duration(robotsTimeout) * time.Second,
		ResultCacheTTL:       time.Duration(cacheTTL) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "dispatches"),
		RedisStreamMaxLength: streamMaxLen,
		SchedulerInterval:    time.Duration(schedInterval) * time.Second,
		Environment:          getEnv("MAILSCHEDULER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for invalid values
func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.RobotsTimeout <= 0 {
		return fmt.Errorf("robots timeout must be positive")
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("base delay must not be negative")
	}
	if c.ResultCacheTTL <= 0 {
		return fmt.Errorf("result cache ttl must be positive")
	}
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
