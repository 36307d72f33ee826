package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIKey            string
	Model             string
	Providers         []string
	EnableFileLogging bool
	Hotkey            string

	// Cache & pool tuning
	ImageCacheTTL      time.Duration
	ImageCacheMaxBytes int
	PermissionTTL      time.Duration
	OverlayIdleTimeout time.Duration
	CleanupInterval    time.Duration
	OCRDeadline        time.Duration
}

func Load() (*Config, error) {
	// Try to load .env from the working directory or the executable's directory
	envPaths := []string{".env"}
	if execPath, err := os.Executable(); err == nil {
		envPaths = append(envPaths, filepath.Join(filepath.Dir(execPath), ".env"))
	}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			godotenv.Load(envPath)
			break
		}
	}

	var providers []string
	if providersStr := os.Getenv("PROVIDERS"); providersStr != "" {
		for _, provider := range strings.Split(providersStr, ",") {
			if trimmed := strings.TrimSpace(provider); trimmed != "" {
				providers = append(providers, trimmed)
			}
		}
	}

	cfg := &Config{
		APIKey:            os.Getenv("OPENROUTER_API_KEY"),
		Model:             os.Getenv("MODEL"),
		Providers:         providers,
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		Hotkey:            getEnvWithDefault("HOTKEY", "Ctrl+Alt+Q"),

		ImageCacheTTL:      getEnvSeconds("IMAGE_CACHE_TTL_SEC", 30),
		ImageCacheMaxBytes: getEnvInt("IMAGE_CACHE_MAX_BYTES", 50*1024*1024),
		PermissionTTL:      getEnvSeconds("PERMISSION_TTL_SEC", 300),
		OverlayIdleTimeout: getEnvSeconds("OVERLAY_IDLE_SEC", 300),
		CleanupInterval:    getEnvSeconds("CLEANUP_INTERVAL_SEC", 60),
		OCRDeadline:        getEnvSeconds("OCR_DEADLINE_SEC", 15),
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
