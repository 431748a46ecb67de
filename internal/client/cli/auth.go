package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/dmitrijs2005/gophprint/internal/client/flow"
	"github.com/dmitrijs2005/gophprint/internal/common"
)

// getSimpleText and notifyContext are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var notifyContext = signal.NotifyContext

// Login prompts for an email or phone number and looks the user up.
//
// On success the flow moves to the fingerprint step and the user is told to
// scan. A rejected credential is cleared; the user simply runs login again.
func (a *App) Login(ctx context.Context) error {
	if a.isAuthenticated() {
		printlnFn("Already logged in. Type 'logout' first.")
		return nil
	}

	credential, err := getSimpleText(a.scanner, "Enter your email or phone number", promptWriter())
	if err != nil {
		return err
	}

	c := a.controller()
	err = c.Submit(ctx, credential)
	if errors.Is(err, flow.ErrWrongStep) {
		printlnFn("A user is already identified. Type 'scan' to continue or 'reset' to start over.")
		return err
	}
	printState(c.Snapshot())
	return err
}

// Scan captures and verifies a fingerprint. Ctrl-C while the scan runs
// resets the flow. After a successful verification it waits for the
// redirect and opens the dashboard.
func (a *App) Scan(ctx context.Context) error {
	c := a.controller()

	sigCtx, stop := notifyContext(ctx, os.Interrupt)
	defer stop()
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCtx.Done():
			if ctx.Err() == nil {
				c.Reset()
			}
		case <-done:
		}
	}()

	err := c.Scan(ctx)
	close(done)

	switch {
	case errors.Is(err, flow.ErrWrongStep):
		printlnFn("Nothing to scan yet. Type 'login' first.")
		return err
	case errors.Is(err, flow.ErrCancelled):
		printlnFn("Scan cancelled. Starting over.")
		return err
	case errors.Is(err, common.ErrBusy):
		printlnFn("A scan is already in progress.")
		return err
	}
	printState(c.Snapshot())
	if err != nil {
		return err
	}

	select {
	case <-a.redirect:
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.Dashboard(ctx)
}

// Reset starts the login over.
func (a *App) Reset(ctx context.Context) error {
	if a.isAuthenticated() {
		printlnFn("Already logged in. Type 'logout' first.")
		return nil
	}
	c := a.controller()
	c.Reset()
	printlnFn("Starting over. Type 'login' to enter your email or phone number.")
	return nil
}

// Device re-checks the scanner and prints the outcome.
func (a *App) Device(ctx context.Context) error {
	a.refreshDevice(ctx)
	printlnFn("Scanner:", a.controller().Snapshot().DeviceStatus)
	return nil
}

// Status prints the flow and scanner state.
func (a *App) Status(ctx context.Context) error {
	if a.isAuthenticated() {
		printlnFn("Logged in. Type 'dashboard' to view your profile.")
		return nil
	}
	s := a.controller().Snapshot()
	printlnFn("Step:", s.Step.String())
	if s.Credential != "" {
		printlnFn("Credential:", s.Credential)
	}
	printState(s)
	return nil
}

// Logout destroys the session and restarts the flow at the identify step.
func (a *App) Logout(ctx context.Context) error {
	if err := a.gate.Logout(ctx); err != nil {
		a.log.Error(ctx, "logout failed", "error", err)
		return err
	}
	a.setAuthenticated(false, "")
	a.restartFlow()
	a.refreshDevice(ctx)
	printlnFn("Logged out.")
	return nil
}

// restartFlow replaces a finished controller with a fresh one.
func (a *App) restartFlow() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flow.Snapshot().Step == flow.StepAuthenticated {
		a.flow = a.newFlow()
	}
}

func printState(s flow.State) {
	if s.Error != "" {
		printlnFn("Error:", s.Error)
	}
	if s.Success != "" {
		printlnFn(s.Success)
	}
	if s.DeviceStatus != "" {
		printlnFn("Scanner:", s.DeviceStatus)
	}
}
