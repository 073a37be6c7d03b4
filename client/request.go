package client

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-auth-client/routes"
)

// BypassAuthorizationParam marks a request that must go out without an Authorization header.
// It is consumed by the client and never reaches the server.
const BypassAuthorizationParam = "bypassAuthorization"

const headerAuthorization = "Authorization"

// Request describes one API call. It is immutable: every With/Without method returns a new
// Request, so a descriptor can be retried or shared between goroutines safely.
type Request struct {
	method  string
	path    string
	header  http.Header
	params  url.Values
	body    []byte
	retried bool
}

// NewRequest creates a request for path, which is either relative to the client's base URL or
// an absolute URL.
func NewRequest(method, path string) *Request {
	return &Request{
		method: method,
		path:   path,
		header: http.Header{},
		params: url.Values{},
	}
}

func (r *Request) Method() string { return r.method }

func (r *Request) Path() string { return r.path }

// Header returns a copy of the request headers.
func (r *Request) Header() http.Header { return r.header.Clone() }

// Params returns a copy of the query parameters.
func (r *Request) Params() url.Values { return cloneValues(r.params) }

// Body returns a copy of the request body.
func (r *Request) Body() []byte { return append([]byte(nil), r.body...) }

func (r *Request) WithHeader(key, value string) *Request {
	c := r.clone()
	c.header.Set(key, value)
	return c
}

func (r *Request) WithoutHeader(key string) *Request {
	if r.header.Get(key) == "" {
		return r
	}
	c := r.clone()
	c.header.Del(key)
	return c
}

func (r *Request) WithParam(key, value string) *Request {
	c := r.clone()
	c.params.Set(key, value)
	return c
}

func (r *Request) WithoutParam(key string) *Request {
	if _, ok := r.params[key]; !ok {
		return r
	}
	c := r.clone()
	c.params.Del(key)
	return c
}

// WithBody sets a raw body and its content type.
func (r *Request) WithBody(contentType string, body []byte) *Request {
	c := r.clone()
	c.body = append([]byte(nil), body...)
	if contentType != "" {
		c.header.Set("Content-Type", contentType)
	}
	return c
}

// WithJSON encodes v as the request body.
func (r *Request) WithJSON(v any) (*Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return r.WithBody("application/json", body), nil
}

// WithBypassAuthorization sends the request without credentials even when signed in.
func (r *Request) WithBypassAuthorization() *Request {
	return r.WithParam(BypassAuthorizationParam, "true")
}

// BypassesAuthorization reports whether the bypass marker is set to a true value.
func (r *Request) BypassesAuthorization() bool {
	v, ok := r.params[BypassAuthorizationParam]
	if !ok || len(v) == 0 {
		return false
	}
	bypass, err := strconv.ParseBool(v[0])
	return err == nil && bypass
}

// isRefreshCall reports whether the request targets the refresh endpoint. Such a request must
// never wait for, or trigger, a refresh: it is the refresh.
func (r *Request) isRefreshCall() bool {
	p := r.path
	if u, err := url.Parse(r.path); err == nil {
		p = u.Path
	}
	return strings.HasSuffix(strings.TrimSuffix(p, "/"), routes.RouteAuthRefresh)
}

func (r *Request) markRetried() *Request {
	c := r.clone()
	c.retried = true
	return c
}

// bearerToken returns the access token the request carries, if any.
func (r *Request) bearerToken() string {
	v := r.header.Get(headerAuthorization)
	if len(v) < 7 || !strings.EqualFold(v[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(v[7:])
}

func (r *Request) clone() *Request {
	c := *r
	c.header = r.header.Clone()
	if c.header == nil {
		c.header = http.Header{}
	}
	c.params = cloneValues(r.params)
	return &c
}

func cloneValues(v url.Values) url.Values {
	c := make(url.Values, len(v))
	for k, vs := range v {
		c[k] = append([]string(nil), vs...)
	}
	return c
}
