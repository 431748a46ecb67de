package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/client/session"
	"github.com/dmitrijs2005/gophprint/internal/client/verify"
	"github.com/dmitrijs2005/gophprint/internal/common"
)

// Dashboard shows the protected view, or sends the user back to login when
// the stored session is missing or no longer valid.
func (a *App) Dashboard(ctx context.Context) error {
	err := a.enterDashboard(ctx)
	if errors.Is(err, common.ErrPersistenceGap) {
		printlnFn("No valid session. Type 'login' to sign in.")
	}
	return err
}

func (a *App) enterDashboard(ctx context.Context) error {
	v, err := a.gate.Enter(ctx)
	if err != nil {
		a.setAuthenticated(false, "")
		a.restartFlow()
		return err
	}
	name := verify.User(v.User).DisplayName()
	a.setAuthenticated(true, name)
	printView(v)
	return nil
}

func printView(v *session.View) {
	u := verify.User(v.User)
	name := u.DisplayName()
	if name == "" {
		name = "user"
	}
	printlnFn("Welcome, " + name + "!")
	if e := u.Email(); e != "" {
		printlnFn("Email:", e)
	}
	if id := u.ID(); id != "" {
		printlnFn("User ID:", id)
	}
	printlnFn("Last login:", v.LastLogin.Local().Format(time.RFC1123))
	if v.FingerprintRegistered {
		printlnFn("Fingerprint: registered")
	}
	if v.FromCache {
		printlnFn("(backend unreachable, showing saved profile)")
	}
}
