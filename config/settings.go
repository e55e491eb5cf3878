package config

import (
	"os"
	"strconv"
)

// Settings holds the tunables the engine reads at startup.
type Settings struct {
	MaxUploadBytes   int64
	MaxCommentLength int
	MaxPageSize      int
	ScanWorkers      int
	ScanQueueKey     string
	EventChannel     string
	RequestRateLimit int
}

// LoadSettings reads settings from the environment, falling back to defaults.
func LoadSettings() Settings {
	return Settings{
		MaxUploadBytes:   envInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
		MaxCommentLength: envInt("MAX_COMMENT_LENGTH", 2000),
		MaxPageSize:      envInt("MAX_PAGE_SIZE", 100),
		ScanWorkers:      envInt("SCAN_WORKERS", 2),
		ScanQueueKey:     envString("REDIS_SCAN_QUEUE", "townreq:scan_queue"),
		EventChannel:     envString("REDIS_EVENT_CHANNEL", "townreq:events"),
		RequestRateLimit: envInt("REQUEST_RATE_LIMIT", 20),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
