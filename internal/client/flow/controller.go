// Package flow implements the two-step login state machine: identify the
// user by email or phone, then verify a fingerprint captured from the local
// scanner.
//
// The controller owns all user-facing state. Each operation is a blocking
// call that returns once its network round trips have settled; the
// loading flag ensures at most one lookup or one capture-then-verify
// sequence is in flight. Reset cancels whatever is in flight, and results
// that arrive for a cancelled operation are dropped.
package flow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/client/device"
	"github.com/dmitrijs2005/gophprint/internal/client/session"
	"github.com/dmitrijs2005/gophprint/internal/client/verify"
	"github.com/dmitrijs2005/gophprint/internal/common"
	"github.com/dmitrijs2005/gophprint/internal/logging"
	"github.com/google/uuid"
)

var (
	// ErrWrongStep is returned when an operation is invoked at a step that
	// does not offer it.
	ErrWrongStep = errors.New("operation not available at this step")

	// ErrCancelled is returned by an operation whose result was discarded
	// because Reset ran while it was in flight.
	ErrCancelled = errors.New("operation cancelled")
)

// DefaultRedirectDelay is the pause between a successful verification and
// the hand-off to the protected view.
const DefaultRedirectDelay = 2 * time.Second

// Device is the part of the device client the flow uses.
type Device interface {
	CheckConnectivity(ctx context.Context) device.Connectivity
	Capture(ctx context.Context, opts device.CaptureOptions) (*device.CaptureResult, error)
}

// Verifier is the part of the verification client the flow uses.
type Verifier interface {
	LookupUser(ctx context.Context, credential string) (verify.LookupResult, error)
	VerifyFingerprint(ctx context.Context, id verify.Identity, template string, quality int, deviceInfo map[string]any) (verify.VerifyResult, error)
}

type Options struct {
	Capture       device.CaptureOptions
	RedirectDelay time.Duration
	// OnAuthenticated runs once, RedirectDelay after a successful
	// verification.
	OnAuthenticated func()
}

type Controller struct {
	dev      Device
	ver      Verifier
	sessions session.Repository
	log      logging.Logger
	opts     Options

	// schedule runs f after d; replaced in tests.
	schedule func(d time.Duration, f func())

	mu         sync.Mutex
	state      State
	epoch      uint64
	cancel     context.CancelFunc
	redirected bool
}

func NewController(dev Device, ver Verifier, sessions session.Repository, log logging.Logger, opts Options) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	return &Controller{
		dev:      dev,
		ver:      ver,
		sessions: sessions,
		log:      log.With("component", "flow"),
		opts:     opts,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		state:    State{Step: StepIdentify, FocusCredential: true},
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.User = maps.Clone(c.state.User)
	return s
}

// RefreshDevice probes the scanner and updates the device flags. It may run
// alongside other operations.
func (c *Controller) RefreshDevice(ctx context.Context) device.Connectivity {
	conn := c.dev.CheckConnectivity(ctx)

	c.mu.Lock()
	c.applyConnectivity(conn)
	c.mu.Unlock()

	if conn.State == device.Limited {
		c.log.Warn(ctx, "scanner reachable with incomplete info", "reason", conn.Reason)
	}
	return conn
}

func (c *Controller) applyConnectivity(conn device.Connectivity) {
	if c.state.Loading && c.state.Step == StepBiometric {
		// a running scan owns the status line
		c.state.DeviceConnected = conn.Usable()
		return
	}
	c.state.DeviceConnected = conn.Usable()
	switch conn.State {
	case device.Connected:
		c.state.DeviceStatus = StatusDeviceReady
	case device.Limited:
		c.state.DeviceStatus = fmt.Sprintf("%s (%s)", StatusDeviceLimited, conn.Reason)
	default:
		c.state.DeviceStatus = fmt.Sprintf("%s (%s)", StatusDeviceMissing, conn.Reason)
	}
}

// Submit validates the credential and looks the user up. On success the
// flow moves to StepBiometric. An invalid credential issues no request.
func (c *Controller) Submit(ctx context.Context, input string) error {
	c.mu.Lock()
	if err := c.checkIdle(StepIdentify); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.Credential = input
	credential, err := ValidateCredential(input)
	if err != nil {
		c.state.Error = err.Error()
		c.state.Err = err
		c.state.Success = ""
		c.state.FocusCredential = true
		c.mu.Unlock()
		return err
	}
	ctx, epoch := c.begin(ctx)
	c.mu.Unlock()

	log := c.log.With("attempt_id", uuid.NewString())

	// best effort: an absent scanner only leaves a warning behind
	c.RefreshDevice(ctx)

	res, err := c.ver.LookupUser(ctx, credential)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.end(epoch) {
		return ErrCancelled
	}

	switch {
	case err != nil:
		log.Warn(ctx, "lookup failed", "error", err)
		c.rejectCredential(MsgConnectionError, err)
		return err
	case !res.Found:
		log.Info(ctx, "user not found")
		c.rejectCredential(MsgUserNotFound, common.ErrNotFound)
		return common.ErrNotFound
	}

	log.Info(ctx, "user found")
	c.state.Step = StepBiometric
	c.state.Credential = credential
	c.state.User = res.User
	c.state.Success = MsgUserFound
	c.state.FocusCredential = false
	return nil
}

// rejectCredential clears the input so the user re-enters it instead of
// editing a stale value.
func (c *Controller) rejectCredential(msg string, err error) {
	c.state.Error = msg
	c.state.Err = err
	c.state.Credential = ""
	c.state.FocusCredential = true
}

// Scan captures a fingerprint and verifies it. On success the session is
// persisted and the redirect is scheduled.
func (c *Controller) Scan(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkIdle(StepBiometric); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.state.DeviceConnected {
		c.state.Error = MsgDeviceNotReady
		c.state.Err = common.ErrDeviceUnavailable
		c.mu.Unlock()
		return common.ErrDeviceUnavailable
	}
	ctx, epoch := c.begin(ctx)
	c.state.DeviceStatus = StatusPlaceFinger
	id := verify.Identity{Credential: c.state.Credential, User: verify.User(c.state.User)}
	c.mu.Unlock()

	log := c.log.With("attempt_id", uuid.NewString())

	capture, err := c.dev.Capture(ctx, c.opts.Capture)
	if err != nil {
		log.Warn(ctx, "capture failed", "error", err)
		return c.scanFailed(epoch, err)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return ErrCancelled
	}
	c.state.DeviceStatus = StatusVerifying
	c.mu.Unlock()

	res, err := c.ver.VerifyFingerprint(ctx, id, capture.Template, capture.Quality, capture.DeviceInfo)
	if err != nil {
		log.Warn(ctx, "verification failed", "error", err)
		return c.scanFailed(epoch, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return ErrCancelled
	}

	if !res.Match {
		c.end(epoch)
		log.Info(ctx, "fingerprint mismatch")
		msg := res.Message
		if msg == "" {
			msg = MsgVerifyFailed
		}
		c.state.Error = msg
		c.state.Err = common.ErrVerificationMismatch
		c.state.DeviceStatus = StatusVerifyFailed
		return common.ErrVerificationMismatch
	}

	// The operation context stays live until the record is written.
	rec := session.Record{Token: res.Token, UserID: res.UserID, User: id.User}
	err = c.sessions.Set(ctx, rec)
	c.end(epoch)
	if err != nil {
		log.Error(ctx, "session write failed", "error", err)
		c.state.Error = MsgScanErrorPrefix + "could not save session"
		c.state.Err = err
		c.state.DeviceStatus = StatusScanFailed
		return err
	}

	log.Info(ctx, "user authenticated", "user_id", res.UserID)
	c.state.Step = StepAuthenticated
	c.state.Success = MsgVerifiedRedirect
	c.state.DeviceStatus = StatusAuthenticated
	c.scheduleRedirect()
	return nil
}

func (c *Controller) scanFailed(epoch uint64, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.end(epoch) {
		return ErrCancelled
	}
	c.state.Error = MsgScanErrorPrefix + err.Error()
	c.state.Err = err
	c.state.DeviceStatus = StatusScanFailed
	return err
}

// scheduleRedirect arms the hand-off timer. It fires once per controller.
func (c *Controller) scheduleRedirect() {
	if c.redirected {
		return
	}
	c.redirected = true
	c.schedule(c.opts.RedirectDelay, func() {
		if c.opts.OnAuthenticated != nil {
			c.opts.OnAuthenticated()
		}
	})
}

// Reset returns to StepIdentify, clearing the credential, user and
// messages. An operation in flight is cancelled. Reset after
// authentication is a no-op.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step == StepAuthenticated {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++
	c.state = State{
		Step:            StepIdentify,
		DeviceConnected: c.state.DeviceConnected,
		FocusCredential: true,
	}
}

// checkIdle must be called with mu held.
func (c *Controller) checkIdle(step Step) error {
	if c.state.Loading {
		return common.ErrBusy
	}
	if c.state.Step != step {
		return fmt.Errorf("%w: at %s", ErrWrongStep, c.state.Step)
	}
	return nil
}

// begin marks the start of an operation; mu must be held.
func (c *Controller) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	c.epoch++
	c.cancel = cancel
	c.state.Loading = true
	c.state.Error = ""
	c.state.Err = nil
	c.state.Success = ""
	return ctx, c.epoch
}

// end closes the operation started at epoch and reports whether its result
// is still wanted; mu must be held.
func (c *Controller) end(epoch uint64) bool {
	if c.epoch != epoch {
		return false
	}
	c.cancel()
	c.cancel = nil
	c.state.Loading = false
	return true
}
