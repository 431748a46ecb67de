package scannersim

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestSimulator_InfoEndpoints(t *testing.T) {
	h := New(Options{}).Handler()

	code, body := doJSON(t, h, http.MethodGet, "/morfinenroll/service-info", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "version")

	code, body = doJSON(t, h, http.MethodGet, "/morfinenroll/devices", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["devices"], 1)

	code, body = doJSON(t, h, http.MethodGet, "/morfinenroll/status", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
}

func TestSimulator_Unavailable(t *testing.T) {
	h := New(Options{Unavailable: true}).Handler()

	code, _ := doJSON(t, h, http.MethodGet, "/morfinenroll/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestSimulator_CaptureEncodings(t *testing.T) {
	tpl := []byte{0x01, 0xFF, 0x10}

	tests := []struct {
		name string
		enc  Encoding
		want any
	}{
		{"string", EncodingString, "Af8Q"},
		{"bytes", EncodingBytes, []any{float64(1), float64(255), float64(16)}},
		{"wrapped", EncodingWrapped, map[string]any{"type": "Buffer", "data": []any{float64(1), float64(255), float64(16)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := New(Options{Template: tpl, Encoding: tt.enc, Quality: 77})
			code, body := doJSON(t, sim.Handler(), http.MethodPost, "/morfinenroll/capture",
				CaptureRequest{CaptureType: "single", FingerCount: 1, Timeout: 20000, Quality: 60})

			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, tt.want, body["template"])
			assert.Equal(t, float64(77), body["quality"])
			require.Len(t, sim.Captures(), 1)
			assert.Equal(t, 60, sim.Captures()[0].Quality)
		})
	}
}

func TestSimulator_CaptureEnvelope(t *testing.T) {
	sim := New(Options{Envelope: EnvelopeData, TemplateKey: "BiometricData"})
	_, body := doJSON(t, sim.Handler(), http.MethodPost, "/morfinenroll/capture", CaptureRequest{Timeout: 1000})

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["BiometricData"])
	assert.Contains(t, body, "device")
}

func TestSimulator_CaptureErrorCode(t *testing.T) {
	sim := New(Options{CaptureErrorCode: -1140, CaptureErrorDescription: "Capture timeout"})
	_, body := doJSON(t, sim.Handler(), http.MethodPost, "/morfinenroll/capture", CaptureRequest{})

	assert.Equal(t, float64(-1140), body["ErrorCode"])
	assert.Equal(t, "Capture timeout", body["ErrorDescription"])
}

func TestSimulator_CaptureDelayHonoursCancel(t *testing.T) {
	sim := New(Options{CaptureDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/morfinenroll/capture", bytes.NewBufferString(`{}`)).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		sim.Handler().ServeHTTP(rec, req)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("capture did not stop after cancellation")
	}
}

func TestSimulator_Update(t *testing.T) {
	sim := New(Options{})
	h := sim.Handler()

	sim.Update(func(o *Options) { o.Devices = []Device{} })
	_, body := doJSON(t, h, http.MethodPost, "/morfinenroll/capture", CaptureRequest{})
	assert.Equal(t, "Device not connected", body["ErrorDescription"])
}
