// Package transport issues HTTP requests on behalf of the session-aware client.
// It knows nothing about credentials: the client decides every header before Send is called.
package transport

import (
	"context"
	"net/http"
	"net/url"
)

// Request is everything the transport needs to issue one call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Params url.Values
	Body   []byte
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a request and returns the response, whatever its status.
// Only failures to obtain a response are returned as errors.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}
