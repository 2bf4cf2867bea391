package app

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Env       string
	LogLevel  string
	HTTPAddr  string
	CORSAllow []string

	RedisAddr string // host:port, empty disables the message mirror
	RedisDB   int

	MirrorQueue int // relayed messages waiting for redis

	TypingExpiry        time.Duration
	TypingSweepInterval time.Duration

	SendBuffer        int // per-connection outbound queue
	UpgradesPerMinute int // per-IP websocket upgrades
}

func LoadConfig() Config {
	cfg := Config{
		Env:       getEnv("APP_ENV", "dev"),
		LogLevel:  getEnv("LOG_LEVEL", ""),
		HTTPAddr:  getEnv("HTTP_ADDR", ":"+getEnv("PORT", "3001")),
		RedisAddr: getEnv("REDIS_ADDR", ""),
	}
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.MirrorQueue = getEnvInt("MIRROR_QUEUE", 1024)
	cfg.TypingExpiry = getEnvDuration("TYPING_EXPIRY", 5*time.Second)
	cfg.TypingSweepInterval = getEnvDuration("TYPING_SWEEP_INTERVAL", 5*time.Second)
	cfg.SendBuffer = getEnvInt("WS_SEND_BUFFER", 256)
	cfg.UpgradesPerMinute = getEnvInt("WS_UPGRADES_PER_MIN", 60)
	// CORS allowlist
	cfg.CORSAllow = splitCSV(getEnv("CORS_ALLOW", "*"))
	return cfg
}

// getEnv returns the env var or a default
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses an int env var with a fallback
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var i int
		_, _ = fmt.Sscanf(v, "%d", &i)
		if i > 0 {
			return i
		}
	}
	return def
}

// getEnvDuration parses a duration env var ("5s", "1500ms") with a fallback
func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
