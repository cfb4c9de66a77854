package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Debug bool // verbose pipeline logging

	StoreBackend string // event store backend: memory, sqlite, postgres
	SQLitePath   string // sqlite database file; empty means in-memory db
	PostgresDSN  string // postgres connection string; required for postgres backend

	BufferSize    int           // events buffered before a size-triggered flush
	FlushInterval time.Duration // periodic flush interval
	MaxEventAge   time.Duration // events older than this are pruned

	ModelPath  string // model parameters artifact (JSON)
	WatchModel bool   // hot-reload the model artifact on change

	MetricsEnabled bool
	MetricsAddr    string
}

func getOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getBool(k string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "1", "t", "true", "y", "yes":
		return true
	case "0", "f", "false", "n", "no":
		return false
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDurationMs(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

func Load() Config {
	return Config{
		Debug:          getBool("AGENTDETECT_DEBUG", false),
		StoreBackend:   getOr("AGENTDETECT_STORE", "memory"),
		SQLitePath:     getOr("AGENTDETECT_SQLITE_PATH", ""),
		PostgresDSN:    getOr("AGENTDETECT_POSTGRES_DSN", ""),
		BufferSize:     getInt("AGENTDETECT_BUFFER_SIZE", 50),
		FlushInterval:  getDurationMs("AGENTDETECT_FLUSH_INTERVAL_MS", 10*time.Second),
		MaxEventAge:    getDurationMs("AGENTDETECT_MAX_EVENT_AGE_MS", 24*time.Hour),
		ModelPath:      getOr("AGENTDETECT_MODEL_PATH", "model_parameters.json"),
		WatchModel:     getBool("AGENTDETECT_WATCH_MODEL", false),
		MetricsEnabled: getBool("AGENTDETECT_METRICS_ENABLED", false),
		MetricsAddr:    getOr("AGENTDETECT_METRICS_ADDR", "127.0.0.1:9090"),
	}
}
