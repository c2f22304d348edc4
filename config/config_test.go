package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, ":8085", config.ListenAddr)
	assert.Equal(t, "data/mailscheduler.sqlite", config.DatabasePath)
	assert.Equal(t, 500*time.Millisecond, config.BaseDelay)
	assert.Equal(t, 10*time.Second, config.FetchTimeout)
	assert.Equal(t, 600*time.Second, config.ResultCacheTTL)
	assert.Equal(t, 60*time.Second, config.SchedulerInterval)
	assert.Equal(t, "", config.RedisAddr)
	assert.Equal(t, "", config.MemcacheAddr)

	// Test with environment variables
	os.Setenv("LISTEN_ADDR", ":9090")
	os.Setenv("DATABASE_PATH", "/tmp/test.sqlite")
	os.Setenv("SCRAPE_BASE_DELAY_MS", "100")
	os.Setenv("RESULT_CACHE_TTL_SECONDS", "120")
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("REDIS_DB", "1")

	config = LoadConfig()
	assert.Equal(t, ":9090", config.ListenAddr)
	assert.Equal(t, "/tmp/test.sqlite", config.DatabasePath)
	assert.Equal(t, 100*time.Millisecond, config.BaseDelay)
	assert.Equal(t, 120*time.Second, config.ResultCacheTTL)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)

	// Clean up
	os.Unsetenv("LISTEN_ADDR")
	os.Unsetenv("DATABASE_PATH")
	os.Unsetenv("SCRAPE_BASE_DELAY_MS")
	os.Unsetenv("RESULT_CACHE_TTL_SECONDS")
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("REDIS_DB")
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	assert.NoError(t, config.Validate())

	invalid := config
	invalid.DatabasePath = ""
	assert.Error(t, invalid.Validate())

	invalid = config
	invalid.FetchTimeout = 0
	assert.Error(t, invalid.Validate())

	invalid = config
	invalid.BaseDelay = -time.Second
	assert.Error(t, invalid.Validate())

	invalid = config
	invalid.SchedulerInterval = 0
	assert.Error(t, invalid.Validate())
}
