// Package session persists the Session Record issued by a successful
// fingerprint verification and gates access to the protected view.
//
// Invariant: the presence of the auth token is the only access-control
// signal. A record without a token does not exist as far as callers are
// concerned, whatever else is stored.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophprint/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophprint/internal/common"
)

// Record is the persisted session: token, user id and a snapshot of the
// user record returned by the lookup.
type Record struct {
	Token  string
	UserID string
	User   map[string]any
}

// Repository is the single entry point to session state. Both the flow
// controller and the protected-view gate receive it explicitly.
type Repository interface {
	// Get returns common.ErrPersistenceGap when no token is stored.
	Get(ctx context.Context) (Record, error)
	Set(ctx context.Context, r Record) error
	Clear(ctx context.Context) error
}

var errEmptyToken = errors.New("session token is empty")

// Store implements Repository on top of a metadata key/value backend.
type Store struct {
	kv metadata.Repository
}

func NewStore(kv metadata.Repository) *Store {
	return &Store{kv: kv}
}

func (s *Store) Get(ctx context.Context) (Record, error) {
	all, err := s.kv.List(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("read session: %w", err)
	}

	token := string(all[common.SessionKeyAuthToken])
	if token == "" {
		return Record{}, common.ErrPersistenceGap
	}

	r := Record{
		Token:  token,
		UserID: string(all[common.SessionKeyUserID]),
	}
	if raw := all[common.SessionKeyAuthenticatedUser]; len(raw) > 0 {
		var user map[string]any
		// a corrupt snapshot is dropped, the token still stands
		if json.Unmarshal(raw, &user) == nil {
			r.User = user
		}
	}
	return r, nil
}

// Set writes all three keys atomically.
func (s *Store) Set(ctx context.Context, r Record) error {
	if r.Token == "" {
		return errEmptyToken
	}
	user, err := json.Marshal(r.User)
	if err != nil {
		return fmt.Errorf("encode user snapshot: %w", err)
	}
	err = s.kv.SetMany(ctx, map[string][]byte{
		common.SessionKeyAuthToken:         []byte(r.Token),
		common.SessionKeyUserID:            []byte(r.UserID),
		common.SessionKeyAuthenticatedUser: user,
	})
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	for _, k := range []string{common.SessionKeyAuthToken, common.SessionKeyUserID, common.SessionKeyAuthenticatedUser} {
		if err := s.kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	return nil
}
