package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/authsession/pkg/requestid"
)

// Endpoint paths relative to the base URL.
const (
	ProfilePath   = "/api/auth/profile"
	HeartbeatPath = "/api/analytics/heartbeat"
)

// maxDrain bounds how much of an ignored response body is read so the
// connection can be reused.
const maxDrain = 64 << 10

// Client talks to the remote authority on behalf of one client process.
// The credential is passed per call and sent as a bearer token.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	clientID  string
	now       func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Transport becomes
// the base of the bearer-token transport; its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClientID overrides the installation id reported in heartbeats.
func WithClientID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.clientID = id
		}
	}
}

// WithClock overrides the time source used for heartbeat timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrEmptyBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Join(ErrInvalidBaseURL, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, ErrInvalidBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}

	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		clientID:  cfg.ClientID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clientID == "" {
		c.clientID = uuid.NewString()
	}
	return c, nil
}

// ClientID returns the installation id sent with heartbeats.
func (c *Client) ClientID() string {
	return c.clientID
}

// CheckProfile issues GET /api/auth/profile with the credential. A 2xx status
// returns nil; other statuses return *StatusError; transport failures wrap
// ErrRequestFailed.
func (c *Client) CheckProfile(ctx context.Context, credential string) error {
	req, err := c.newRequest(ctx, http.MethodGet, ProfilePath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, credential)
}

type heartbeatPayload struct {
	ClientID string    `json:"client_id"`
	SentAt   time.Time `json:"sent_at"`
}

// SendHeartbeat issues POST /api/analytics/heartbeat with the credential.
// Errors follow CheckProfile.
func (c *Client) SendHeartbeat(ctx context.Context, credential string) error {
	body, err := json.Marshal(heartbeatPayload{
		ClientID: c.clientID,
		SentAt:   c.now().UTC(),
	})
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, HeartbeatPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, credential)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, credential string) error {
	resp, err := c.authorized(credential).Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
		}
	}
	return nil
}

// authorized returns an HTTP client that adds "Authorization: Bearer <credential>"
// and an X-Request-ID to every request.
func (c *Client) authorized(credential string) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential, TokenType: "Bearer"})
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: src,
			Base:   &requestid.Transport{Base: c.http.Transport},
		},
		Timeout: c.http.Timeout,
	}
}
