package transport

import (
	"context"
	"io"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var _ Transport = (*HTTP)(nil)

// HTTP is the network Transport. Connection errors, 429 and 5xx responses are retried with
// backoff; every other status, 401 and 403 included, is handed straight back to the client.
type HTTP struct {
	client *retryablehttp.Client
}

// NewHTTP creates a retrying HTTP transport from the transport configuration.
func NewHTTP(cfg config.TransportConfig, logger zerolog.Logger) *HTTP {
	c := retryablehttp.NewClient()
	c.HTTPClient.Timeout = cfg.GetRequestTimeout()
	c.RetryMax = cfg.GetRetryMax()
	c.RetryWaitMin = cfg.GetRetryWaitMin()
	c.RetryWaitMax = cfg.GetRetryWaitMax()
	c.CheckRetry = retryablehttp.DefaultRetryPolicy
	// Return the last response instead of a "giving up" error so the caller sees the real status.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = leveledLogger{logger: logger.With().Str("component", "transport").Logger()}
	return &HTTP{client: c}
}

// Send issues the request, merging Params into the URL query.
func (t *HTTP) Send(ctx context.Context, req *Request) (*Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid url %q", req.URL)
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for k, vs := range req.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body interface{}
	if req.Body != nil {
		body = req.Body
	}
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, u.Redacted())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
