// Package device talks to the local fingerprint scanner service.
//
// The service is a device-resident HTTP endpoint (MorFinEnroll for the
// MFS100 scanner) exposing service info, device enumeration, a liveness
// probe and a capture call. Client issues exactly one request per call and
// never retries; the caller decides whether to try again.
package device

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/common"
	"github.com/dmitrijs2005/gophprint/internal/cryptox"
	"github.com/dmitrijs2005/gophprint/internal/logging"
	"github.com/dmitrijs2005/gophprint/internal/netx"
	"github.com/dmitrijs2005/gophprint/internal/payload"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	probeTimeout  = 5 * time.Second
	statusTimeout = 4 * time.Second

	// captureMargin keeps the network deadline beyond the device deadline
	// so the device reports its own timeout first.
	captureMargin = 5 * time.Second

	DefaultCaptureTimeout = 20 * time.Second
	DefaultMinQuality     = 60
)

// State is the outcome of a connectivity check.
type State int

const (
	Unreachable State = iota
	// Limited means the service answered but the device list was missing
	// or empty.
	Limited
	Connected
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Limited:
		return "limited"
	default:
		return "unreachable"
	}
}

// Connectivity is the result of CheckConnectivity. Reason is human readable.
type Connectivity struct {
	State   State
	Reason  string
	Devices int
}

// Usable reports whether a capture may be attempted.
func (c Connectivity) Usable() bool {
	return c.State != Unreachable
}

// CaptureOptions tune a single capture. Zero values take the defaults.
type CaptureOptions struct {
	Timeout        time.Duration
	MinQuality     int
	FingerPosition string
	// Slap requests a four-finger capture.
	Slap bool
}

// CaptureResult is a successful capture. Template is always a non-empty
// text-safe string.
type CaptureResult struct {
	Template   string
	Quality    int
	RawPayload map[string]any
	DeviceInfo map[string]any
}

type captureRequest struct {
	CaptureType    string `json:"captureType"`
	FingerCount    int    `json:"fingerCount"`
	Timeout        int64  `json:"timeout"`
	Quality        int    `json:"quality"`
	FingerPosition string `json:"fingerPosition,omitempty"`
}

// Client is the Device Client.
type Client struct {
	baseURL string
	http    *netx.Client
	log     logging.Logger
}

// NewHTTPClient returns the http.Client used to reach the scanner. The
// service normally runs with a self-signed certificate on localhost, which
// skipTLSVerify accepts.
func NewHTTPClient(skipTLSVerify bool) *http.Client {
	if !skipTLSVerify {
		return &http.Client{}
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return &http.Client{Transport: tr}
}

func NewClient(baseURL string, hc *http.Client, log logging.Logger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("component", "device")
	return &Client{
		baseURL: baseURL,
		http:    netx.NewClient(hc, log),
		log:     log,
	}
}

func (c *Client) url(path string) string {
	return netx.JoinURL(c.baseURL, path)
}

// CheckConnectivity probes the service info and the device list. It never
// fails; every problem collapses into the returned state and reason.
func (c *Client) CheckConnectivity(ctx context.Context) Connectivity {
	infoCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	b, err := c.http.DoJSON(infoCtx, http.MethodGet, c.url("/service-info"), nil, nil)
	timedOut := errors.Is(infoCtx.Err(), context.DeadlineExceeded)
	cancel()
	if err != nil {
		c.log.Debug(ctx, "service info failed", "error", err)
		return Connectivity{State: Unreachable, Reason: reason(err, timedOut)}
	}
	if _, err := payload.Decode(b); err != nil {
		return Connectivity{State: Limited, Reason: "service info unreadable"}
	}

	devCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	b, err = c.http.DoJSON(devCtx, http.MethodGet, c.url("/devices"), nil, nil)
	if err != nil {
		c.log.Debug(ctx, "device list failed", "error", err)
		return Connectivity{State: Limited, Reason: "device list unavailable"}
	}
	n := countDevices(b)
	if n == 0 {
		return Connectivity{State: Limited, Reason: "no devices reported"}
	}
	return Connectivity{State: Connected, Reason: "device connected and ready", Devices: n}
}

// countDevices accepts a bare list or an object with a devices/data list.
func countDevices(b []byte) int {
	v, err := payload.DecodeValue(b)
	if err != nil {
		return 0
	}
	if l := v.GetListValue(); l != nil {
		return len(l.GetValues())
	}
	s := v.GetStructValue()
	if s == nil {
		return 0
	}
	dv, ok := payload.First(s, "devices", "connectedDevices", "data")
	if !ok {
		return 0
	}
	if l := dv.GetListValue(); l != nil {
		return len(l.GetValues())
	}
	if dv.GetStructValue() != nil {
		return 1
	}
	return 0
}

// Status is the liveness probe. A nil error means the service answered 2xx.
func (c *Client) Status(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	if _, err := c.http.DoJSON(ctx, http.MethodGet, c.url("/status"), nil, nil); err != nil {
		return fmt.Errorf("%w: %w", common.ErrDeviceUnavailable, err)
	}
	return nil
}

// Capture performs a single capture. Failures are returned as errors
// matching common.ErrDeviceUnavailable (service not reachable, timeout,
// non-2xx) or common.ErrCaptureFailure (device error code, no template).
func (c *Client) Capture(ctx context.Context, opts CaptureOptions) (*CaptureResult, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCaptureTimeout
	}
	if opts.MinQuality <= 0 {
		opts.MinQuality = DefaultMinQuality
	}
	req := captureRequest{
		CaptureType:    "single",
		FingerCount:    1,
		Timeout:        opts.Timeout.Milliseconds(),
		Quality:        opts.MinQuality,
		FingerPosition: opts.FingerPosition,
	}
	if opts.Slap {
		req.FingerCount = 4
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout+captureMargin)
	defer cancel()

	b, err := c.http.DoJSON(ctx, http.MethodPost, c.url("/capture"), req, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDeviceUnavailable, err)
	}

	res, err := decodeCapture(b)
	if err != nil {
		c.log.Info(ctx, "capture rejected", "error", err)
		return nil, err
	}
	c.log.Info(ctx, "fingerprint captured",
		"quality", res.Quality,
		"template_digest", cryptox.TemplateDigest(res.Template))
	return res, nil
}

// decodeCapture normalizes a capture response. The capture object is taken
// from "capture", "data" or the root; the template from the first of the
// known template keys, converted to text by payload.TextSafe.
func decodeCapture(b []byte) (*CaptureResult, error) {
	root, err := payload.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable capture response: %w", common.ErrCaptureFailure, err)
	}
	capture, ok := payload.Object(root, "capture", "data")
	if !ok {
		capture = root
	}

	if err := deviceError(capture, root); err != nil {
		return nil, err
	}

	tv, ok := payload.First(capture, "template", "BiometricData", "Template", "BitmapData")
	if !ok {
		return nil, fmt.Errorf("%w: no fingerprint data captured", common.ErrCaptureFailure)
	}
	template, ok := payload.TextSafe(tv)
	if !ok {
		return nil, fmt.Errorf("%w: no fingerprint data captured", common.ErrCaptureFailure)
	}

	quality, _ := payload.Int(capture, "quality", "Quality")

	deviceInfo := map[string]any{}
	if d, ok := payload.Object(root, "device", "deviceInfo"); ok {
		deviceInfo = payload.Map(d)
	} else if d, ok := payload.Object(capture, "device", "deviceInfo"); ok {
		deviceInfo = payload.Map(d)
	}

	raw := payload.Map(capture)
	for _, k := range []string{"template", "BiometricData", "Template", "BitmapData"} {
		delete(raw, k)
	}

	return &CaptureResult{
		Template:   template,
		Quality:    quality,
		RawPayload: raw,
		DeviceInfo: deviceInfo,
	}, nil
}

func deviceError(objs ...*structpb.Struct) error {
	for _, o := range objs {
		if code, ok := payload.Int(o, "ErrorCode", "errorCode"); ok && code != 0 {
			desc := payload.String(o, "ErrorDescription", "errorDescription")
			if desc == "" {
				desc = fmt.Sprintf("device error %d", code)
			}
			return fmt.Errorf("%w: %s", common.ErrCaptureFailure, desc)
		}
		if payload.Has(o, "success") && !payload.Bool(o, "success") {
			desc := payload.String(o, "error", "message")
			if desc == "" {
				desc = "fingerprint capture failed"
			}
			return fmt.Errorf("%w: %s", common.ErrCaptureFailure, desc)
		}
	}
	return nil
}

func reason(err error, timedOut bool) string {
	var se *netx.StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("service responded %d", se.StatusCode)
	case timedOut:
		return "request timed out"
	default:
		return "service not reachable"
	}
}
