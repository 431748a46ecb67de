package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/flagx"
	"github.com/dmitrijs2005/gophprint/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero values so a partial file only
// overrides what it names.
type JsonConfig struct {
	BackendBaseURL *string `json:"backend_base_url"`
	LookupPath     *string `json:"lookup_path"`
	VerifyPath     *string `json:"verify_path"`
	ProfilePath    *string `json:"profile_path"`

	LookupTimeout  *timex.Duration `json:"lookup_timeout"`
	VerifyTimeout  *timex.Duration `json:"verify_timeout"`
	ProfileTimeout *timex.Duration `json:"profile_timeout"`

	DeviceBaseURL       *string         `json:"device_base_url"`
	DeviceSkipTLSVerify *bool           `json:"device_skip_tls_verify"`
	DeviceCheckInterval *timex.Duration `json:"device_check_interval"`

	CaptureTimeout *timex.Duration `json:"capture_timeout"`
	MinQuality     *int            `json:"min_quality"`
	FingerPosition *string         `json:"finger_position"`

	RedirectDelay *timex.Duration `json:"redirect_delay"`

	SessionStore  *string `json:"session_store"`
	SessionDBPath *string `json:"session_db_path"`
	RedisURL      *string `json:"redis_url"`

	LogLevel *string `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file named by
// -c / -config. Without the flag nothing happens. Read or unmarshal errors
// panic; the caller decides whether to recover.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.BackendBaseURL, jc.BackendBaseURL)
	setString(&cfg.LookupPath, jc.LookupPath)
	setString(&cfg.VerifyPath, jc.VerifyPath)
	setString(&cfg.ProfilePath, jc.ProfilePath)

	setDuration(&cfg.LookupTimeout, jc.LookupTimeout)
	setDuration(&cfg.VerifyTimeout, jc.VerifyTimeout)
	setDuration(&cfg.ProfileTimeout, jc.ProfileTimeout)

	setString(&cfg.DeviceBaseURL, jc.DeviceBaseURL)
	if jc.DeviceSkipTLSVerify != nil {
		cfg.DeviceSkipTLSVerify = *jc.DeviceSkipTLSVerify
	}
	setDuration(&cfg.DeviceCheckInterval, jc.DeviceCheckInterval)

	setDuration(&cfg.CaptureTimeout, jc.CaptureTimeout)
	if jc.MinQuality != nil {
		cfg.MinQuality = *jc.MinQuality
	}
	setString(&cfg.FingerPosition, jc.FingerPosition)

	setDuration(&cfg.RedirectDelay, jc.RedirectDelay)

	setString(&cfg.SessionStore, jc.SessionStore)
	setString(&cfg.SessionDBPath, jc.SessionDBPath)
	setString(&cfg.RedisURL, jc.RedisURL)

	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
