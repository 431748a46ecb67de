package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/common"
	"github.com/dmitrijs2005/gophprint/internal/logging"
	"github.com/dmitrijs2005/gophprint/internal/netx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	rec     *Record
	getErr  error
	cleared int
}

func (m *memRepo) Get(context.Context) (Record, error) {
	if m.getErr != nil {
		return Record{}, m.getErr
	}
	if m.rec == nil || m.rec.Token == "" {
		return Record{}, common.ErrPersistenceGap
	}
	return *m.rec, nil
}

func (m *memRepo) Set(_ context.Context, r Record) error {
	m.rec = &r
	return nil
}

func (m *memRepo) Clear(context.Context) error {
	m.cleared++
	m.rec = nil
	return nil
}

type fakeProfiles struct {
	profile map[string]any
	err     error
	calls   int

	gotToken, gotUserID string
}

func (f *fakeProfiles) FetchProfile(_ context.Context, token, userID string) (map[string]any, error) {
	f.calls++
	f.gotToken, f.gotUserID = token, userID
	return f.profile, f.err
}

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newGate(repo Repository, profiles ProfileFetcher) *Gate {
	g := NewGate(repo, profiles, logging.Discard())
	g.now = func() time.Time { return fixedNow }
	return g
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestGate_Enter_NoSession(t *testing.T) {
	repo := &memRepo{}
	profiles := &fakeProfiles{}

	_, err := newGate(repo, profiles).Enter(context.Background())

	require.ErrorIs(t, err, common.ErrPersistenceGap)
	assert.Zero(t, profiles.calls, "no network call without a token")
}

func TestGate_Enter_MissingUserIDClearsSession(t *testing.T) {
	repo := &memRepo{rec: &Record{Token: "tok"}}
	profiles := &fakeProfiles{}

	_, err := newGate(repo, profiles).Enter(context.Background())

	require.ErrorIs(t, err, common.ErrPersistenceGap)
	assert.Equal(t, 1, repo.cleared)
	assert.Zero(t, profiles.calls)
}

func TestGate_Enter_ProfileFromBackend(t *testing.T) {
	repo := &memRepo{rec: &Record{Token: "tok-xyz", UserID: "42"}}
	profiles := &fakeProfiles{profile: map[string]any{"id": "42", "name": "Jane", "lastLogin": "2026-10-14T08:30:00Z"}}

	v, err := newGate(repo, profiles).Enter(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tok-xyz", profiles.gotToken)
	assert.Equal(t, "42", profiles.gotUserID)
	assert.Equal(t, "Jane", v.User["name"])
	assert.Equal(t, time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC), v.LastLogin)
	assert.True(t, v.FingerprintRegistered)
	assert.False(t, v.FromCache)
}

func TestGate_Enter_LastLoginDefaultsToNow(t *testing.T) {
	repo := &memRepo{rec: &Record{Token: "tok", UserID: "42"}}
	profiles := &fakeProfiles{profile: map[string]any{"id": "42"}}

	v, err := newGate(repo, profiles).Enter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixedNow, v.LastLogin)
}

func TestGate_Enter_FallsBackToSavedUser(t *testing.T) {
	repo := &memRepo{rec: &Record{Token: "tok", UserID: "42", User: map[string]any{"name": "Jane"}}}
	profiles := &fakeProfiles{err: fmt.Errorf("%w: connection refused", common.ErrTransport)}

	v, err := newGate(repo, profiles).Enter(context.Background())
	require.NoError(t, err)

	assert.True(t, v.FromCache)
	assert.Equal(t, "Jane", v.User["name"])
	assert.Zero(t, repo.cleared)
}

func TestGate_Enter_ServerErrorWithoutSavedUserClears(t *testing.T) {
	repo := &memRepo{rec: &Record{Token: "tok", UserID: "42"}}
	profiles := &fakeProfiles{err: fmt.Errorf("%w: %w", common.ErrTransport, &netx.StatusError{StatusCode: http.StatusInternalServerError})}

	_, err := newGate(repo, profiles).Enter(context.Background())

	require.ErrorIs(t, err, common.ErrPersistenceGap)
	assert.Equal(t, 1, repo.cleared)
}

func TestGate_Enter_RejectedTokenClearsEvenWithSavedUser(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			repo := &memRepo{rec: &Record{Token: "tok", UserID: "42", User: map[string]any{"name": "Jane"}}}
			profiles := &fakeProfiles{err: fmt.Errorf("%w: %w", common.ErrTransport, &netx.StatusError{StatusCode: code})}

			_, err := newGate(repo, profiles).Enter(context.Background())

			require.ErrorIs(t, err, common.ErrPersistenceGap)
			assert.Equal(t, 1, repo.cleared)
		})
	}
}

func TestGate_Enter_ExpiredJWT(t *testing.T) {
	repo := &memRepo{rec: &Record{Token: signedToken(t, fixedNow.Add(-time.Minute)), UserID: "42"}}
	profiles := &fakeProfiles{profile: map[string]any{}}

	_, err := newGate(repo, profiles).Enter(context.Background())

	require.ErrorIs(t, err, common.ErrPersistenceGap)
	assert.Zero(t, profiles.calls, "expired token must not reach the backend")
	assert.Equal(t, 1, repo.cleared)
}

func TestGate_Enter_ValidJWT(t *testing.T) {
	repo := &memRepo{rec: &Record{Token: signedToken(t, fixedNow.Add(time.Hour)), UserID: "42"}}
	profiles := &fakeProfiles{profile: map[string]any{"id": "42"}}

	_, err := newGate(repo, profiles).Enter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, profiles.calls)
}

func TestGate_Enter_ReadErrorDropsSession(t *testing.T) {
	repo := &memRepo{getErr: errors.New("disk on fire")}

	_, err := newGate(repo, &fakeProfiles{}).Enter(context.Background())

	require.ErrorIs(t, err, common.ErrPersistenceGap)
	assert.Equal(t, 1, repo.cleared)
}

func TestGate_Logout(t *testing.T) {
	repo := &memRepo{rec: &Record{Token: "tok", UserID: "42"}}

	require.NoError(t, newGate(repo, &fakeProfiles{}).Logout(context.Background()))
	assert.Nil(t, repo.rec)
}

func TestTokenExpired(t *testing.T) {
	assert.False(t, tokenExpired("tok-xyz", fixedNow), "opaque tokens are not judged locally")
	assert.True(t, tokenExpired(signedToken(t, fixedNow.Add(-time.Second)), fixedNow))
	assert.False(t, tokenExpired(signedToken(t, fixedNow.Add(time.Second)), fixedNow))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).SignedString([]byte("k"))
	require.NoError(t, err)
	assert.False(t, tokenExpired(noExp, fixedNow))
}
