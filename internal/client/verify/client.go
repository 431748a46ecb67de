// Package verify talks to the remote verification backend: user lookup,
// fingerprint verification and profile retrieval.
//
// Response bodies are decoded by pure functions (decodeLookup, decodeVerify)
// that enumerate every accepted shape. A negative answer is a result value;
// only transport problems are errors, and those match common.ErrTransport.
package verify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/gophprint/internal/client/config"
	"github.com/dmitrijs2005/gophprint/internal/common"
	"github.com/dmitrijs2005/gophprint/internal/cryptox"
	"github.com/dmitrijs2005/gophprint/internal/logging"
	"github.com/dmitrijs2005/gophprint/internal/netx"
	"github.com/dmitrijs2005/gophprint/internal/payload"
)

var errMissingToken = errors.New("verification matched without a token")

// LookupResult is Found(User) or NotFound(Message).
type LookupResult struct {
	Found   bool
	User    User
	Message string
}

// VerifyResult is Match(Token, UserID) or NoMatch(Message).
type VerifyResult struct {
	Match   bool
	Token   string
	UserID  string
	Message string
}

// Identity is who the scan claims to be.
type Identity struct {
	Credential string
	User       User
}

type lookupRequest struct {
	Email        string `json:"email,omitempty"`
	EmailOrPhone string `json:"emailOrPhone"`
}

type verifyRequest struct {
	UserID              string         `json:"userId"`
	Email               string         `json:"email"`
	EmailOrPhone        string         `json:"emailOrPhone"`
	FingerprintTemplate string         `json:"fingerprintTemplate"`
	Quality             int            `json:"quality"`
	DeviceInfo          map[string]any `json:"deviceInfo"`
}

// Client is the Verification Client.
type Client struct {
	cfg  *config.Config
	http *netx.Client
	log  logging.Logger
}

func NewClient(cfg *config.Config, hc *http.Client, log logging.Logger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("component", "verify")
	return &Client{cfg: cfg, http: netx.NewClient(hc, log), log: log}
}

// LookupUser asks the backend whether credential belongs to a registered
// user.
func (c *Client) LookupUser(ctx context.Context, credential string) (LookupResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.LookupTimeout)
	defer cancel()

	req := lookupRequest{EmailOrPhone: credential}
	if isEmail(credential) {
		req.Email = credential
	}
	b, err := c.http.DoJSON(ctx, http.MethodPost, c.url(c.cfg.LookupPath), req, nil)
	if err != nil {
		return LookupResult{}, err
	}
	s, err := payload.Decode(b)
	if err != nil {
		return LookupResult{}, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}

	res := decodeLookup(s, credential)
	c.log.Info(ctx, "user lookup finished", "found", res.Found)
	return res, nil
}

// VerifyFingerprint submits the captured template for matching.
func (c *Client) VerifyFingerprint(ctx context.Context, id Identity, template string, quality int, deviceInfo map[string]any) (VerifyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.VerifyTimeout)
	defer cancel()

	email := id.User.Email()
	if email == "" && isEmail(id.Credential) {
		email = id.Credential
	}
	if deviceInfo == nil {
		deviceInfo = map[string]any{}
	}
	req := verifyRequest{
		UserID:              id.User.ID(),
		Email:               email,
		EmailOrPhone:        id.Credential,
		FingerprintTemplate: template,
		Quality:             quality,
		DeviceInfo:          deviceInfo,
	}

	log := c.log.With("template_digest", cryptox.TemplateDigest(template))
	b, err := c.http.DoJSON(ctx, http.MethodPost, c.url(c.cfg.VerifyPath), req, nil)
	if err != nil {
		log.Warn(ctx, "verification request failed", "error", err)
		return VerifyResult{}, err
	}
	s, err := payload.Decode(b)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}

	res := decodeVerify(s)
	if res.Match && res.Token == "" {
		return VerifyResult{}, fmt.Errorf("%w: %w", common.ErrTransport, errMissingToken)
	}
	if res.Match && res.UserID == "" {
		res.UserID = req.UserID
	}
	log.Info(ctx, "verification finished", "match", res.Match)
	return res, nil
}

// FetchProfile loads the user's profile with the session token.
func (c *Client) FetchProfile(ctx context.Context, token, userID string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProfileTimeout)
	defer cancel()

	path := strings.ReplaceAll(c.cfg.ProfilePath, "{id}", url.PathEscape(userID))
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	b, err := c.http.DoJSON(ctx, http.MethodGet, c.url(path), nil, header)
	if err != nil {
		return nil, err
	}
	s, err := payload.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	if u, ok := payload.Object(s, "user"); ok {
		return payload.Map(u), nil
	}
	if d, ok := payload.Object(s, "data"); ok {
		if u, ok := payload.Object(d, "user"); ok {
			return payload.Map(u), nil
		}
		return payload.Map(d), nil
	}
	return payload.Map(s), nil
}

func (c *Client) url(path string) string {
	return netx.JoinURL(c.cfg.BackendBaseURL, path)
}
