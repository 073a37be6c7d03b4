// Package client is the authenticated HTTP client. Every request goes through an interceptor
// pipeline that attaches the session's bearer token, waits for an outstanding refresh and
// retries an authentication failure once after refreshing.
package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/metrics"
	"github.com/jrsteele09/go-auth-client/routes"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultUserAgent = "go-auth-client/1.0"

// Client sends requests on behalf of one session.
type Client struct {
	store     *session.Store
	transport transport.Transport
	refresher *auth.RefreshCoordinator
	logouter  *auth.LogoutCoordinator

	baseURL       string
	userAgent     string
	deviceID      string
	serverContext bool
	nowTime       func() time.Time
	logger        zerolog.Logger
	metrics       *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL resolves relative request paths against baseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithNowTime overrides the clock used for the proactive expiry check.
func WithNowTime(now func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = now
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithDeviceID sets the identifier sent with logout. It defaults to the base64 encoded User-Agent.
func WithDeviceID(deviceID string) Option {
	return func(c *Client) {
		c.deviceID = deviceID
	}
}

// WithServerContext makes logout purely local: no call is made to the server.
func WithServerContext(serverContext bool) Option {
	return func(c *Client) {
		c.serverContext = serverContext
	}
}

// ConfigOptions translates loaded configuration into client options.
func ConfigOptions(cfg config.Config) []Option {
	opts := []Option{
		WithBaseURL(cfg.GetBaseURL()),
		WithUserAgent(cfg.GetUserAgent()),
		WithServerContext(cfg.IsServerContext()),
	}
	if id := cfg.GetDeviceID(); id != "" {
		opts = append(opts, WithDeviceID(id))
	}
	return opts
}

// New creates a client over store that sends requests through t.
func New(store *session.Store, t transport.Transport, opts ...Option) *Client {
	c := &Client{
		store:     store,
		transport: t,
		userAgent: defaultUserAgent,
		nowTime:   time.Now,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.deviceID == "" {
		c.deviceID = base64.StdEncoding.EncodeToString([]byte(c.userAgent))
	}
	c.logger = c.logger.With().Str("component", "client").Logger()

	coordinatorOpts := []auth.Option{auth.WithLogger(c.logger), auth.WithMetrics(c.metrics)}
	c.refresher = auth.NewRefreshCoordinator(store, c.refreshCall, coordinatorOpts...)
	c.logouter = auth.NewLogoutCoordinator(store, c.logoutCall, auth.LogoutConfig{
		DeviceID:      c.deviceID,
		ServerContext: c.serverContext,
	}, coordinatorOpts...)
	return c
}

// Store returns the session the client acts for.
func (c *Client) Store() *session.Store {
	return c.store
}

// DeviceID returns the identifier sent with logout.
func (c *Client) DeviceID() string {
	return c.deviceID
}

// Do sends req through the interceptor pipeline. Any status of 400 or above is returned as an
// *HTTPError; after a 401 or 403 the request is retried at most once.
func (c *Client) Do(ctx context.Context, req *Request) (*transport.Response, error) {
	resp, sent, err := c.dispatch(ctx, req)
	if err == nil {
		return resp, nil
	}
	return c.interceptError(ctx, req, sent, err)
}

// DoJSON sends req and decodes a JSON response body into out. A nil out discards the body.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return errors.Wrapf(errors.ErrInvalidResponse, "%s %s: %v", req.Method(), req.Path(), err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.DoJSON(ctx, NewRequest(http.MethodGet, path), out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	req := NewRequest(method, path)
	if in != nil {
		var err error
		if req, err = req.WithJSON(in); err != nil {
			return errors.Wrapf(errors.ErrInvalidRequest, "encoding %s %s body: %v", method, path, err)
		}
	}
	return c.DoJSON(ctx, req, out)
}

// Refresh refreshes the session's credentials, joining a refresh already in flight.
func (c *Client) Refresh(ctx context.Context) (session.Credentials, error) {
	return c.refresher.Refresh(ctx)
}

// Logout ends the session. It always leaves the store unauthenticated, even when the server
// cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	return c.logouter.EnsureLogout(ctx)
}

// dispatch runs the request interceptor and the transport. sent is the request as it went out.
func (c *Client) dispatch(ctx context.Context, req *Request) (*transport.Response, *Request, error) {
	sent, err := c.interceptRequest(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	treq := c.toTransport(sent)
	resp, err := c.transport.Send(ctx, treq)
	if err != nil {
		return nil, sent, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, sent, newHTTPError(treq, resp)
	}
	return resp, sent, nil
}

func (c *Client) toTransport(req *Request) *transport.Request {
	header := req.Header()
	if header.Get("Accept") == "" {
		header.Set("Accept", "application/json")
	}
	return &transport.Request{
		Method: req.Method(),
		URL:    c.resolve(req.Path()),
		Header: header,
		Params: req.Params(),
		Body:   req.Body(),
	}
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	DeviceToken string `json:"deviceToken"`
}

// refreshCall exchanges refreshToken for new credentials. It goes through the pipeline like any
// other request, flagged so that it is sent without the (expired) access token.
func (c *Client) refreshCall(ctx context.Context, refreshToken string) (session.Credentials, error) {
	req, err := NewRequest(http.MethodPost, routes.RouteAuthRefresh).
		WithBypassAuthorization().
		WithJSON(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return session.Credentials{}, err
	}

	var creds session.Credentials
	if err := c.DoJSON(ctx, req, &creds); err != nil {
		return session.Credentials{}, err
	}
	return creds, nil
}

func (c *Client) logoutCall(ctx context.Context, deviceID string) error {
	req, err := NewRequest(http.MethodPost, routes.RouteAuthLogout).
		WithJSON(logoutRequest{DeviceToken: deviceID})
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}
