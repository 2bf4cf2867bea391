package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_ADDR", "PORT", "CORS_ALLOW", "REDIS_ADDR", "REDIS_DB", "MIRROR_QUEUE",
		"TYPING_EXPIRY", "TYPING_SWEEP_INTERVAL", "WS_SEND_BUFFER", "WS_UPGRADES_PER_MIN"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":3001", cfg.HTTPAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSAllow)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 1024, cfg.MirrorQueue)
	assert.Equal(t, 5*time.Second, cfg.TypingExpiry)
	assert.Equal(t, 5*time.Second, cfg.TypingSweepInterval)
	assert.Equal(t, 256, cfg.SendBuffer)
	assert.Equal(t, 60, cfg.UpgradesPerMinute)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "4000")
	t.Setenv("CORS_ALLOW", " http://a.test , ,http://b.test")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("MIRROR_QUEUE", "16")
	t.Setenv("TYPING_EXPIRY", "1500ms")
	t.Setenv("TYPING_SWEEP_INTERVAL", "nonsense")
	t.Setenv("WS_SEND_BUFFER", "-4")

	cfg := LoadConfig()

	assert.Equal(t, ":4000", cfg.HTTPAddr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllow)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 16, cfg.MirrorQueue)
	assert.Equal(t, 1500*time.Millisecond, cfg.TypingExpiry)
	assert.Equal(t, 5*time.Second, cfg.TypingSweepInterval)
	assert.Equal(t, 256, cfg.SendBuffer)
}

func TestHTTPAddrOverridesPort(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	assert.Equal(t, "127.0.0.1:9000", LoadConfig().HTTPAddr)
}
