package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"backend_base_url":       "https://verify.example:9000",
		"verify_timeout":         "25s",
		"capture_timeout":        15000000000,
		"min_quality":            70,
		"device_skip_tls_verify": true,
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "https://verify.example:9000", cfg.BackendBaseURL)
		assert.Equal(t, 25*time.Second, cfg.VerifyTimeout)
		assert.Equal(t, 15*time.Second, cfg.CaptureTimeout)
		assert.Equal(t, 70, cfg.MinQuality)
		assert.True(t, cfg.DeviceSkipTLSVerify)
	})

	t.Run("absent keys keep defaults", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "/check-email", cfg.LookupPath)
		assert.Equal(t, 10*time.Second, cfg.LookupTimeout)
		assert.Equal(t, 2*time.Second, cfg.RedirectDelay)
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			BackendBaseURL: "defaults:1234",
			VerifyTimeout:  42 * time.Second,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.BackendBaseURL)
		assert.Equal(t, 42*time.Second, cfg.VerifyTimeout)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "absent.json")}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}

func TestLoadConfig_NonPositiveTimeoutsFallBackToDefaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"lookup_timeout":        "0s",
		"verify_timeout":        "0s",
		"profile_timeout":       "-1s",
		"capture_timeout":       0,
		"device_check_interval": "-5s",
		"redirect_delay":        "-1s",
	})
	os.Args = []string{"testbin", "-c", path}

	cfg := LoadConfig()

	assert.Equal(t, 10*time.Second, cfg.LookupTimeout)
	assert.Equal(t, 20*time.Second, cfg.VerifyTimeout)
	assert.Equal(t, 10*time.Second, cfg.ProfileTimeout)
	assert.Equal(t, 20*time.Second, cfg.CaptureTimeout)
	assert.Zero(t, cfg.DeviceCheckInterval, "zero disables the watcher")
	assert.Zero(t, cfg.RedirectDelay)
}

func TestNormalize_KeepsPositiveValues(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.LookupTimeout = 3 * time.Second
	cfg.DeviceCheckInterval = 0

	cfg.normalize()

	assert.Equal(t, 3*time.Second, cfg.LookupTimeout)
	assert.Zero(t, cfg.DeviceCheckInterval)
}
