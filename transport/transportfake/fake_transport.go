package transportfake

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/jrsteele09/go-auth-client/transport"
)

var _ transport.Transport = (*FakeTransport)(nil)

// Handler answers one request.
type Handler func(ctx context.Context, req *transport.Request) (*transport.Response, error)

// FakeTransport routes requests by method and path to scripted handlers and records every
// request it receives. Unrouted requests get a 404.
type FakeTransport struct {
	routes   map[string]Handler
	requests []*transport.Request
	lock     sync.RWMutex
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		routes: make(map[string]Handler),
	}
}

// Handle registers h for method and URL path.
func (ft *FakeTransport) Handle(method, path string, h Handler) {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	ft.routes[method+" "+path] = h
}

func (ft *FakeTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	recorded := clone(req)
	path := req.URL
	if u, err := url.Parse(req.URL); err == nil {
		path = u.Path
	}

	ft.lock.Lock()
	ft.requests = append(ft.requests, recorded)
	h, ok := ft.routes[req.Method+" "+path]
	ft.lock.Unlock()

	if !ok {
		return Status(http.StatusNotFound), nil
	}
	return h(ctx, recorded)
}

// Requests returns every request received so far, in arrival order.
func (ft *FakeTransport) Requests() []*transport.Request {
	ft.lock.RLock()
	defer ft.lock.RUnlock()
	return append([]*transport.Request(nil), ft.requests...)
}

// RequestsTo returns the requests received for method and path.
func (ft *FakeTransport) RequestsTo(method, path string) []*transport.Request {
	ft.lock.RLock()
	defer ft.lock.RUnlock()
	var matched []*transport.Request
	for _, r := range ft.requests {
		u, err := url.Parse(r.URL)
		if err == nil && r.Method == method && u.Path == path {
			matched = append(matched, r)
		}
	}
	return matched
}

// Calls counts the requests received for method and path.
func (ft *FakeTransport) Calls(method, path string) int {
	return len(ft.RequestsTo(method, path))
}

// JSON builds a response with v encoded as the body.
func JSON(status int, v any) *transport.Response {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &transport.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       body,
	}
}

// Status builds an empty response with the given status.
func Status(status int) *transport.Response {
	return &transport.Response{StatusCode: status, Header: http.Header{}}
}

// Respond returns a Handler that always answers with resp.
func Respond(resp *transport.Response) Handler {
	return func(context.Context, *transport.Request) (*transport.Response, error) {
		return resp, nil
	}
}

func clone(req *transport.Request) *transport.Request {
	c := *req
	c.Header = req.Header.Clone()
	if req.Params != nil {
		c.Params = url.Values{}
		for k, v := range req.Params {
			c.Params[k] = append([]string(nil), v...)
		}
	}
	c.Body = append([]byte(nil), req.Body...)
	return &c
}
