package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophprint/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv overlays Config with environment variables. A dotenv file is
// loaded first (without overriding variables already set in the process);
// a missing file is ignored. BACKEND_URL may be set to an empty string on
// purpose, meaning relative request paths.
func parseEnv(cfg *Config) {
	envFile := flagx.EnvFileFlags()
	if envFile == "" {
		envFile = defaultEnvFile
	}
	_ = godotenv.Load(envFile)

	if v, ok := os.LookupEnv("BACKEND_URL"); ok {
		cfg.BackendBaseURL = v
	} else if v, ok := os.LookupEnv("VITE_BACKEND_URL"); ok {
		cfg.BackendBaseURL = v
	}

	if v := os.Getenv("DEVICE_URL"); v != "" {
		cfg.DeviceBaseURL = v
	}
	if v := os.Getenv("DEVICE_SKIP_TLS_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DeviceSkipTLSVerify = b
		}
	}
	if v := os.Getenv("SESSION_STORE"); v != "" {
		cfg.SessionStore = strings.ToLower(v)
	}
	if v := os.Getenv("SESSION_DB_PATH"); v != "" {
		cfg.SessionDBPath = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}
