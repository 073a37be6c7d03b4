package client

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/transport"
)

const (
	headerRequestID   = "X-Request-Id"
	headerTraceparent = "Traceparent"
)

// interceptRequest prepares req for sending. It starts a refresh when the access token has
// expired, holds the request while a refresh is outstanding and then attaches whatever
// credentials the session holds at that point.
func (c *Client) interceptRequest(ctx context.Context, req *Request) (*Request, error) {
	if c.store.RefreshInFlight() == nil {
		if token, claims, ok := c.store.AccessClaims(); ok && claims.Expired(c.nowTime()) {
			// Only refreshes if token is still current; a refresh that landed meanwhile wins.
			if _, err := c.refresher.EnsureRefreshFor(ctx, token); err != nil {
				c.logger.Debug().Err(err).Msg("Proactive refresh not started")
			}
		}
	}

	// The refresh call itself must not wait on the flight it settles.
	if flight := c.store.RefreshInFlight(); flight != nil && !req.isRefreshCall() {
		c.metrics.RequestWaited()
		select {
		case <-flight.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := req
	creds, ok := c.store.Credentials()
	if ok && creds.AccessToken != "" && !req.BypassesAuthorization() {
		out = out.WithHeader(headerAuthorization, "Bearer "+creds.AccessToken)
	} else {
		out = out.WithoutHeader(headerAuthorization)
	}
	out = out.WithoutParam(BypassAuthorizationParam)

	if c.userAgent != "" && out.header.Get("User-Agent") == "" {
		out = out.WithHeader("User-Agent", c.userAgent)
	}
	if out.header.Get(headerRequestID) == "" {
		out = out.WithHeader(headerRequestID, uuid.NewString())
	}
	if tp, ok := traceparent(ctx); ok {
		out = out.WithHeader(headerTraceparent, tp)
	}
	return out, nil
}

// interceptError handles an authentication failure by refreshing the session and retrying the
// original request once. Whenever that is not possible the original error is returned.
func (c *Client) interceptError(ctx context.Context, req, sent *Request, err error) (*transport.Response, error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || !needsReauthentication(httpErr.Status) {
		return nil, err
	}
	if req.retried || req.isRefreshCall() {
		return nil, err
	}

	creds, ok := c.store.Credentials()
	if !ok || creds.AccessToken == "" {
		return nil, err
	}
	staleToken := sent.bearerToken()
	if staleToken == "" {
		staleToken = creds.AccessToken
	}

	// A nil flight means the session already holds a newer token than the one that failed.
	flight, ferr := c.refresher.EnsureRefreshFor(ctx, staleToken)
	if ferr != nil {
		return nil, err
	}
	if flight != nil {
		if _, werr := flight.Wait(ctx); werr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Debug().Err(werr).Int("status", httpErr.Status).Msg("Refresh failed, returning original error")
			return nil, err
		}
	}

	c.logger.Debug().Int("status", httpErr.Status).Str("method", req.Method()).Str("path", req.Path()).Msg("Retrying request after refresh")
	c.metrics.RequestRetried(strconv.Itoa(httpErr.Status))
	return c.Do(ctx, req.markRetried())
}
