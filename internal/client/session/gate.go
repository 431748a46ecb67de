package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/common"
	"github.com/dmitrijs2005/gophprint/internal/logging"
	"github.com/dmitrijs2005/gophprint/internal/netx"
	"github.com/golang-jwt/jwt/v5"
)

// ProfileFetcher loads the authenticated user's profile from the backend.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token, userID string) (map[string]any, error)
}

// View is what the protected view renders.
type View struct {
	User                  map[string]any
	LastLogin             time.Time
	FingerprintRegistered bool
	// FromCache is set when the profile came from the saved snapshot
	// because the backend could not be reached.
	FromCache bool
}

// Gate guards the protected view.
type Gate struct {
	sessions Repository
	profiles ProfileFetcher
	log      logging.Logger
	now      func() time.Time
}

func NewGate(sessions Repository, profiles ProfileFetcher, log logging.Logger) *Gate {
	return &Gate{sessions: sessions, profiles: profiles, log: log, now: time.Now}
}

// Enter resolves the protected view for the stored session.
//
// A missing token or user id, an expired JWT, or a profile request rejected
// with 401/403 clears the session and returns common.ErrPersistenceGap; the
// caller routes back to the identify step. Any other profile failure falls
// back to the saved user snapshot, and only when there is none is the
// session cleared.
func (g *Gate) Enter(ctx context.Context) (*View, error) {
	rec, err := g.sessions.Get(ctx)
	if err != nil {
		if errors.Is(err, common.ErrPersistenceGap) {
			return nil, err
		}
		g.log.Error(ctx, "session read failed", "error", err)
		return nil, g.drop(ctx, "unreadable session")
	}
	if rec.UserID == "" {
		return nil, g.drop(ctx, "session has no user id")
	}
	if tokenExpired(rec.Token, g.now()) {
		return nil, g.drop(ctx, "session token expired")
	}

	profile, err := g.profiles.FetchProfile(ctx, rec.Token, rec.UserID)
	if err == nil {
		return &View{
			User:                  profile,
			LastLogin:             lastLogin(profile, g.now()),
			FingerprintRegistered: true,
		}, nil
	}

	var se *netx.StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
		return nil, g.drop(ctx, "session token rejected")
	}

	g.log.Warn(ctx, "profile fetch failed, using saved user", "error", err)
	if rec.User == nil {
		return nil, g.drop(ctx, "no saved user")
	}
	return &View{
		User:                  rec.User,
		LastLogin:             g.now(),
		FingerprintRegistered: true,
		FromCache:             true,
	}, nil
}

// Logout destroys the session.
func (g *Gate) Logout(ctx context.Context) error {
	return g.sessions.Clear(ctx)
}

func (g *Gate) drop(ctx context.Context, reason string) error {
	g.log.Info(ctx, "session dropped", "reason", reason)
	if err := g.sessions.Clear(ctx); err != nil {
		g.log.Error(ctx, "session clear failed", "error", err)
	}
	return common.ErrPersistenceGap
}

// tokenExpired reports whether token is a JWT whose exp lies in the past.
// Opaque tokens and JWTs without exp are never considered expired here;
// the backend remains the authority on them.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

func lastLogin(profile map[string]any, now time.Time) time.Time {
	if s, ok := profile["lastLogin"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return now
}
