package config

import "time"

// Session store kinds.
const (
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"
)

// Config holds runtime settings for the gophprint client.
//
// Backend fields describe the remote verification service; an empty
// BackendBaseURL keeps request paths relative. Device fields describe the
// local scanner service. Durations are time.Duration values.
type Config struct {
	BackendBaseURL string
	LookupPath     string
	VerifyPath     string
	ProfilePath    string

	LookupTimeout  time.Duration
	VerifyTimeout  time.Duration
	ProfileTimeout time.Duration

	DeviceBaseURL       string
	DeviceSkipTLSVerify bool
	DeviceCheckInterval time.Duration

	CaptureTimeout time.Duration
	MinQuality     int
	FingerPosition string

	RedirectDelay time.Duration

	SessionStore  string
	SessionDBPath string
	RedisURL      string

	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendBaseURL = "http://127.0.0.1:8080"
	c.LookupPath = "/check-email"
	c.VerifyPath = "/verify-fingerprint"
	c.ProfilePath = "/user/{id}"

	c.LookupTimeout = 10 * time.Second
	c.VerifyTimeout = 20 * time.Second
	c.ProfileTimeout = 10 * time.Second

	c.DeviceBaseURL = "https://localhost:8032/morfinenroll"
	c.DeviceSkipTLSVerify = false
	c.DeviceCheckInterval = 5 * time.Second

	c.CaptureTimeout = 20 * time.Second
	c.MinQuality = 60
	c.FingerPosition = ""

	c.RedirectDelay = 2 * time.Second

	c.SessionStore = SessionStoreSQLite
	c.SessionDBPath = "session.db"
	c.RedisURL = ""

	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	cfg.normalize()
	return cfg
}

// normalize replaces request timeouts that would fail every call with their
// defaults. A negative device check interval or redirect delay becomes zero.
func (c *Config) normalize() {
	var d Config
	d.LoadDefaults()

	for _, p := range []struct{ v, def *time.Duration }{
		{&c.LookupTimeout, &d.LookupTimeout},
		{&c.VerifyTimeout, &d.VerifyTimeout},
		{&c.ProfileTimeout, &d.ProfileTimeout},
		{&c.CaptureTimeout, &d.CaptureTimeout},
	} {
		if *p.v <= 0 {
			*p.v = *p.def
		}
	}
	if c.DeviceCheckInterval < 0 {
		c.DeviceCheckInterval = 0
	}
	if c.RedirectDelay < 0 {
		c.RedirectDelay = 0
	}
	if c.MinQuality < 0 {
		c.MinQuality = d.MinQuality
	}
}
