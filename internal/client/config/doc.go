// Package config loads runtime configuration for the gophprint client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment, optionally seeded from a dotenv file (see parseEnv).
//     The file is ".env" unless -e / -env-file names another one; a missing
//     file is not an error.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-b string   backend base URL
//	-d string   local scanner service base URL
//	-s string   session store: sqlite | redis
//	-i int      device check interval (seconds, 0 disables the watcher)
//	-l string   log level
//
// Environment variables
//
//	BACKEND_URL (VITE_BACKEND_URL accepted as fallback), DEVICE_URL,
//	DEVICE_SKIP_TLS_VERIFY, SESSION_STORE, SESSION_DB_PATH, REDIS_URL,
//	LOG_LEVEL
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "20s"
// or integer nanoseconds. Absent keys keep their previous value:
//
//	{
//	  "backend_base_url": "https://verify.example.com/api",
//	  "lookup_path": "/check-email",
//	  "verify_path": "/verify-fingerprint",
//	  "profile_path": "/user/{id}",
//	  "lookup_timeout": "10s",
//	  "verify_timeout": "25s",
//	  "profile_timeout": "10s",
//	  "device_base_url": "https://localhost:8032/morfinenroll",
//	  "device_skip_tls_verify": true,
//	  "device_check_interval": "5s",
//	  "capture_timeout": "20s",
//	  "min_quality": 60,
//	  "finger_position": "right_index",
//	  "redirect_delay": "2s",
//	  "session_store": "sqlite",
//	  "session_db_path": "session.db",
//	  "redis_url": "redis://localhost:6379/0",
//	  "log_level": "debug"
//	}
package config
