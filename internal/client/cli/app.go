package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/client/config"
	"github.com/dmitrijs2005/gophprint/internal/client/device"
	"github.com/dmitrijs2005/gophprint/internal/client/flow"
	"github.com/dmitrijs2005/gophprint/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophprint/internal/client/session"
	"github.com/dmitrijs2005/gophprint/internal/client/storage"
	"github.com/dmitrijs2005/gophprint/internal/client/verify"
	"github.com/dmitrijs2005/gophprint/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Mode is the scanner availability shown in the prompt.
type Mode string

const (
	ModeReady   Mode = "ready"
	ModeLimited Mode = "limited"
	ModeOffline Mode = "offline"
)

func modeOf(c device.Connectivity) Mode {
	switch c.State {
	case device.Connected:
		return ModeReady
	case device.Limited:
		return ModeLimited
	default:
		return ModeOffline
	}
}

// deviceProbe is the cheap liveness check used by the watcher.
type deviceProbe interface {
	Status(ctx context.Context) error
}

type App struct {
	config *config.Config
	log    logging.Logger

	newFlow func() *flow.Controller
	gate    *session.Gate
	probe   deviceProbe
	scanner *bufio.Scanner
	closers []io.Closer

	mu            sync.Mutex
	flow          *flow.Controller
	Mode          Mode
	authenticated bool
	userName      string
	redirect      chan struct{}
}

// NewApp wires storage, clients and the login flow from c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	kv, closer, err := openMetadata(ctx, c)
	if err != nil {
		log.Error(ctx, "error initializing session storage", "error", err)
		return nil, err
	}

	sessions := session.NewStore(kv)
	dev := device.NewClient(c.DeviceBaseURL, device.NewHTTPClient(c.DeviceSkipTLSVerify), log)
	ver := verify.NewClient(c, nil, log)

	a := &App{
		config:   c,
		log:      log,
		gate:     session.NewGate(sessions, ver, log),
		probe:    dev,
		scanner:  bufio.NewScanner(os.Stdin),
		closers:  []io.Closer{closer},
		redirect: make(chan struct{}, 1),
	}
	opts := flow.Options{
		Capture: device.CaptureOptions{
			Timeout:        c.CaptureTimeout,
			MinQuality:     c.MinQuality,
			FingerPosition: c.FingerPosition,
		},
		RedirectDelay:   c.RedirectDelay,
		OnAuthenticated: a.onAuthenticated,
	}
	a.newFlow = func() *flow.Controller {
		return flow.NewController(dev, ver, sessions, log, opts)
	}
	a.flow = a.newFlow()
	return a, nil
}

// openMetadata opens the configured key/value backend for session data.
func openMetadata(ctx context.Context, c *config.Config) (metadata.Repository, io.Closer, error) {
	switch c.SessionStore {
	case config.SessionStoreSQLite:
		db, err := storage.InitDatabase(ctx, c.SessionDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open session database: %w", err)
		}
		return metadata.NewSQLiteRepository(db), db, nil

	case config.SessionStoreRedis:
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return metadata.NewRedisRepository(rdb, ""), rdb, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q", c.SessionStore)
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (a *App) controller() *flow.Controller {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flow
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(ctx, "scanner status changed", "mode", mode)
	}
}

func (a *App) isAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authenticated
}

func (a *App) setAuthenticated(ok bool, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authenticated = ok
	a.userName = name
}

// onAuthenticated runs on the redirect timer.
func (a *App) onAuthenticated() {
	select {
	case a.redirect <- struct{}{}:
	default:
	}
}

// refreshDevice probes the scanner through the flow so both share one view.
func (a *App) refreshDevice(ctx context.Context) device.Connectivity {
	conn := a.controller().RefreshDevice(ctx)
	a.setMode(ctx, modeOf(conn))
	return conn
}

// StartDeviceWatcher polls the scanner every interval. The cheap status
// probe runs on every tick; a full connectivity check only follows when
// the probe disagrees with the current mode.
func (a *App) StartDeviceWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.probe.Status(pctx)
			cancel()

			a.mu.Lock()
			mode := a.Mode
			a.mu.Unlock()

			if err != nil {
				if mode != ModeOffline {
					a.refreshDevice(ctx)
				}
			} else {
				if mode != ModeReady {
					a.refreshDevice(ctx)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.authenticated {
		return fmt.Sprintf("(%s dashboard)", a.userName)
	}
	s := a.flow.Snapshot()
	status := s.Step.String()
	if s.Credential != "" && s.Step == flow.StepBiometric {
		status += " " + s.Credential
	}
	if a.Mode != "" {
		status += " scanner:" + string(a.Mode)
	}
	return fmt.Sprintf("(%s)", status)
}

// Run opens the dashboard when a valid session is stored, otherwise starts
// the login flow, then hands control to the REPL until exit.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.Close(); err != nil {
			a.log.Error(ctx, "close failed", "error", err)
		}
	}()

	if interactive() {
		printlnFn("Welcome to gophprint (type 'help' for commands)")
	}

	if err := a.enterDashboard(ctx); err != nil {
		a.refreshDevice(ctx)
		printlnFn("Scanner:", a.controller().Snapshot().DeviceStatus)
	}

	if a.config.DeviceCheckInterval > 0 {
		go a.StartDeviceWatcher(ctx, a.config.DeviceCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, a.scanner)
}
