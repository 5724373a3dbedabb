// Package apiclient talks to the cfproxyhub JSON API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

const (
	DefaultTimeout  = 30 * time.Second
	RequestIDHeader = "X-Request-ID"

	statusSuccess = "success"
)

// APIError is a response the server answered with a non-2xx status or an
// envelope whose status is not "success".
type APIError struct {
	StatusCode int
	Message    string
	// Envelope is true when the body was a JSON envelope.
	Envelope bool
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// TransportError is a request that never produced a response: network
// failures, timeouts and unreadable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request hit its deadline.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func hostnamesPath(scope domain.TunnelScope) string {
	return fmt.Sprintf("/api/cloudflare/accounts/%s/tunnels/%s/hostnames",
		url.PathEscape(scope.AccountID), url.PathEscape(scope.TunnelID))
}

func hostnamePath(scope domain.TunnelScope, hostname string) string {
	return hostnamesPath(scope) + "/" + url.PathEscape(hostname)
}

type HostnameList struct {
	Message   string                  `json:"message"`
	AccountID string                  `json:"account_id"`
	TunnelID  string                  `json:"tunnel_id"`
	Hostnames []domain.HostnameRecord `json:"hostnames"`
	Total     int                     `json:"total"`
}

type CreateResult struct {
	Message  string          `json:"message"`
	Hostname string          `json:"hostname"`
	Config   json.RawMessage `json:"config,omitempty"`
}

type UpdateResult struct {
	Message        string `json:"message"`
	TargetHostname string `json:"target_hostname"`
	NewHostname    string `json:"new_hostname"`
}

type DeleteResult struct {
	Message         string `json:"message"`
	DeletedHostname string `json:"deleted_hostname"`
}

type ZoneList struct {
	Message string        `json:"message"`
	Zones   []domain.Zone `json:"zones"`
	Total   int           `json:"total"`
}

type ZoneQuery struct {
	ActiveOnly bool
	Limit      int
	Search     string
}

// DropdownQuery is the query the hostname editor uses.
var DropdownQuery = ZoneQuery{ActiveOnly: true, Limit: 50}

type LoginResult struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ListHostnames fetches every record of the tunnel. A success envelope
// without a hostnames field is reported as an *APIError.
func (c *Client) ListHostnames(ctx context.Context, scope domain.TunnelScope) (HostnameList, error) {
	var out HostnameList
	if err := c.do(ctx, http.MethodGet, hostnamesPath(scope), nil, &out); err != nil {
		return out, err
	}
	if out.Hostnames == nil {
		return out, &APIError{StatusCode: http.StatusOK, Message: "response has no hostnames", Envelope: true}
	}
	return out, nil
}

func (c *Client) CreateHostname(ctx context.Context, scope domain.TunnelScope, in domain.HostnameInput) (CreateResult, error) {
	var out CreateResult
	err := c.do(ctx, http.MethodPost, hostnamesPath(scope), in, &out)
	return out, err
}

// UpdateHostname addresses the record by its original hostname; the body
// carries the new values, including a possibly different hostname.
func (c *Client) UpdateHostname(ctx context.Context, scope domain.TunnelScope, original string, in domain.HostnameInput) (UpdateResult, error) {
	var out UpdateResult
	err := c.do(ctx, http.MethodPut, hostnamePath(scope, original), in, &out)
	return out, err
}

func (c *Client) DeleteHostname(ctx context.Context, scope domain.TunnelScope, hostname string) (DeleteResult, error) {
	var out DeleteResult
	err := c.do(ctx, http.MethodDelete, hostnamePath(scope, hostname), nil, &out)
	return out, err
}

func (c *Client) ListZones(ctx context.Context, accountID string, q ZoneQuery) (ZoneList, error) {
	params := url.Values{}
	params.Set("active_only", fmt.Sprintf("%t", q.ActiveOnly))
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", q.Limit))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	path := fmt.Sprintf("/api/cloudflare/accounts/%s/zones/dropdown?%s", url.PathEscape(accountID), params.Encode())

	var out ZoneList
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	requestID := uuid.New().String()
	req.Header.Set(RequestIDHeader, requestID)

	log := logger.Logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})
	log.Debug("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read response", Err: err}
	}
	log.WithField("status", resp.StatusCode).Debug("received response")

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
			apiErr.Envelope = env.Status != ""
		}
		return apiErr
	}
	if decodeErr != nil {
		return &TransportError{Op: "decode response", Err: decodeErr}
	}
	if env.Status != statusSuccess {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message, Envelope: true}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &TransportError{Op: "decode response data", Err: err}
		}
	}
	return nil
}
