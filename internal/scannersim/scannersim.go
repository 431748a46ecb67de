// Package scannersim fakes the local fingerprint scanner service
// (MorFinEnroll-style HTTP surface) for development and tests.
//
// The simulator serves GET /service-info, GET /devices, GET /status and
// POST /capture under a base path. Its behaviour, including how the template
// is encoded and which failures are injected, is set with Options and may be
// changed at runtime with Update.
package scannersim

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// DefaultBasePath matches the path prefix of the real service.
const DefaultBasePath = "/morfinenroll"

// Encoding selects how the template appears in a capture response.
type Encoding string

const (
	// EncodingString returns the template as a base64 string.
	EncodingString Encoding = "string"
	// EncodingBytes returns the template as a JSON array of byte values.
	EncodingBytes Encoding = "bytes"
	// EncodingWrapped returns {"data": [...]} around the byte array.
	EncodingWrapped Encoding = "wrapped"
)

// Envelope selects where the capture object sits in the response.
type Envelope string

const (
	EnvelopeRoot    Envelope = ""
	EnvelopeCapture Envelope = "capture"
	EnvelopeData    Envelope = "data"
)

type Device struct {
	Serial string `json:"serial"`
	Model  string `json:"model"`
}

// Options configures the simulator.
type Options struct {
	BasePath string

	Template    []byte
	Encoding    Encoding
	Envelope    Envelope
	TemplateKey string // defaults to "template"
	Quality     int

	Devices []Device

	// CaptureErrorCode != 0 makes captures fail with that code.
	CaptureErrorCode        int
	CaptureErrorDescription string
	// CaptureDelay simulates the time a finger takes to be placed.
	CaptureDelay time.Duration

	// Unavailable makes every endpoint answer 503.
	Unavailable bool
	// DevicesUnavailable makes only /devices answer 503.
	DevicesUnavailable bool
}

// CaptureRequest is the body accepted by POST /capture.
type CaptureRequest struct {
	CaptureType    string `json:"captureType"`
	FingerCount    int    `json:"fingerCount"`
	Timeout        int    `json:"timeout"`
	Quality        int    `json:"quality"`
	FingerPosition string `json:"fingerPosition,omitempty"`
}

// Simulator is an http.Handler provider; safe for concurrent use.
type Simulator struct {
	mu       sync.Mutex
	opts     Options
	captures []CaptureRequest
}

func New(opts Options) *Simulator {
	return &Simulator{opts: withDefaults(opts)}
}

func withDefaults(o Options) Options {
	if o.BasePath == "" {
		o.BasePath = DefaultBasePath
	}
	if o.Encoding == "" {
		o.Encoding = EncodingString
	}
	if o.TemplateKey == "" {
		o.TemplateKey = "template"
	}
	if o.Template == nil {
		o.Template = []byte("simulated-fingerprint-template")
	}
	if o.Quality == 0 {
		o.Quality = 80
	}
	if o.Devices == nil {
		o.Devices = []Device{{Serial: "SIM-0001", Model: "MFS100"}}
	}
	return o
}

// Update changes the options under the simulator's lock.
func (s *Simulator) Update(fn func(o *Options)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.opts)
	s.opts = withDefaults(s.opts)
}

// Captures returns the capture requests received so far.
func (s *Simulator) Captures() []CaptureRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CaptureRequest, len(s.captures))
	copy(out, s.captures)
	return out
}

func (s *Simulator) options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// Handler returns the chi router serving the scanner surface.
func (s *Simulator) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.availability)

	r.Route(s.options().BasePath, func(r chi.Router) {
		r.Get("/service-info", s.handleServiceInfo)
		r.Get("/devices", s.handleDevices)
		r.Get("/status", s.handleStatus)
		r.Post("/capture", s.handleCapture)
	})
	return r
}

func (s *Simulator) availability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.options().Unavailable {
			respondWithError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Simulator) handleServiceInfo(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"name":    "MorFinEnroll simulator",
		"version": "1.0.0",
	})
}

func (s *Simulator) handleDevices(w http.ResponseWriter, _ *http.Request) {
	o := s.options()
	if o.DevicesUnavailable {
		respondWithError(w, http.StatusServiceUnavailable, "device enumeration failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"devices": o.Devices})
}

func (s *Simulator) handleStatus(w http.ResponseWriter, _ *http.Request) {
	o := s.options()
	status := "ready"
	if len(o.Devices) == 0 {
		status = "no device"
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"status": status})
}

func (s *Simulator) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid capture request")
		return
	}

	s.mu.Lock()
	s.captures = append(s.captures, req)
	o := s.opts
	s.mu.Unlock()

	if o.CaptureDelay > 0 {
		deviceTimeout := time.Duration(req.Timeout) * time.Millisecond
		if req.Timeout > 0 && o.CaptureDelay > deviceTimeout {
			o.CaptureErrorCode = -1140
			o.CaptureErrorDescription = "Capture timeout"
			o.CaptureDelay = deviceTimeout
		}
		select {
		case <-time.After(o.CaptureDelay):
		case <-r.Context().Done():
			return
		}
	}

	if len(o.Devices) == 0 {
		respondWithJSON(w, http.StatusOK, map[string]any{
			"ErrorCode":        -1307,
			"ErrorDescription": "Device not connected",
		})
		return
	}
	if o.CaptureErrorCode != 0 {
		respondWithJSON(w, http.StatusOK, map[string]any{
			"ErrorCode":        o.CaptureErrorCode,
			"ErrorDescription": o.CaptureErrorDescription,
		})
		return
	}

	capture := map[string]any{
		o.TemplateKey: encodeTemplate(o.Template, o.Encoding),
		"quality":     o.Quality,
		"ErrorCode":   0,
	}
	device := map[string]any{"serial": o.Devices[0].Serial, "model": o.Devices[0].Model}

	var body map[string]any
	switch o.Envelope {
	case EnvelopeCapture, EnvelopeData:
		body = map[string]any{string(o.Envelope): capture, "device": device}
	default:
		capture["device"] = device
		body = capture
	}
	respondWithJSON(w, http.StatusOK, body)
}

func respondWithJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}
