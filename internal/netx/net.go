// Package netx wraps the JSON-over-HTTP exchanges the client makes with the
// local scanner service and the verification backend.
//
// Every call carries a fresh X-Request-ID, runs under the caller's context
// (so a deadline aborts the request rather than abandoning it), and maps
// every failure, whether network, timeout or non-2xx status, onto
// common.ErrTransport. Non-2xx responses keep their body text in a
// *StatusError for diagnosis.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/common"
	"github.com/dmitrijs2005/gophprint/internal/logging"
	"github.com/google/uuid"
)

// maxBodySize bounds how much of a response is read. Capture payloads may
// embed images, so this is generous.
const maxBodySize = 16 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server responded %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded %d %s", e.StatusCode, e.Body)
}

// Client performs JSON requests with an underlying *http.Client.
type Client struct {
	http *http.Client
	log  logging.Logger
}

// NewClient wraps hc. A nil hc uses a fresh http.Client without its own
// timeout; deadlines come from the request context.
func NewClient(hc *http.Client, log logging.Logger) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Client{http: hc, log: log}
}

// DoJSON sends payload (JSON-encoded, or no body when nil) and returns the
// raw response body of a 2xx response. header entries are added to the
// request.
func (c *Client) DoJSON(ctx context.Context, method, url string, payload any, header http.Header) ([]byte, error) {
	requestID := uuid.NewString()
	log := c.log.With("request_id", requestID, "method", method, "url", url)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug(ctx, "request failed", "duration", time.Since(started), "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request timed out", common.ErrTransport)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	defer resp.Body.Close()

	log.Debug(ctx, "request finished", "status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// best effort; a broken body must not mask the status
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		})
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", common.ErrTransport, err)
	}
	return b, nil
}

// JoinURL joins base and path with exactly one slash between them. An empty
// base returns path unchanged.
func JoinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
