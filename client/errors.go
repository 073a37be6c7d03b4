package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/transport"
)

// HTTPError is returned for every response with a 4xx or 5xx status. It is the only kind of
// server failure callers see: coordination problems are never surfaced in its place.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Body    string
	Method  string
	URL     string
	Header  http.Header
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.URL, e.Status, msg)
}

// IsUnauthorized reports whether err is an authentication (401) or authorization (403) failure.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && needsReauthentication(httpErr.Status)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

func needsReauthentication(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func newHTTPError(req *transport.Request, resp *transport.Response) *HTTPError {
	e := &HTTPError{
		Status: resp.StatusCode,
		Body:   string(resp.Body),
		Method: req.Method,
		URL:    req.URL,
		Header: resp.Header,
	}
	// Both {"error":{"code","message"}} and flat {"code","message"} bodies are understood.
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err == nil {
		e.Code, e.Message = payload.Code, payload.Message
		if payload.Error != nil {
			e.Code, e.Message = payload.Error.Code, payload.Error.Message
		}
	}
	return e
}
