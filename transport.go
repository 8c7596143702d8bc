package tindak

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// Response is the raw outcome of one HTTP exchange as seen by producers:
// status, headers and fully read body bytes.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs one HTTP exchange for a request descriptor.
// Connectivity failures (DNS, timeout, connection reset) surface as a
// Transport classified error, distinct from any HTTP status.
type Transport interface {
	Do(ctx context.Context, desc RequestDescriptor, header http.Header) (*Response, error)
}

// Middleware wraps a Transport for cross-cutting concerns (tracing, extra
// headers, request logging).
type Middleware func(ctx context.Context, desc RequestDescriptor, header http.Header, next Transport) (*Response, error)

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, desc RequestDescriptor, header http.Header) (*Response, error)

func (f TransportFunc) Do(ctx context.Context, desc RequestDescriptor, header http.Header) (*Response, error) {
	return f(ctx, desc, header)
}

// HTTPTransport is the default Transport on top of net/http.
type HTTPTransport struct {
	client     *http.Client
	middleware []Middleware
}

// NewHTTPTransport creates a transport around an *http.Client (nil means
// http.DefaultClient) with an optional middleware chain.
func NewHTTPTransport(client *http.Client, middleware ...Middleware) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client, middleware: middleware}
}

// Do executes the exchange through the middleware chain.
func (t *HTTPTransport) Do(ctx context.Context, desc RequestDescriptor, header http.Header) (*Response, error) {
	current := Transport(TransportFunc(t.roundTrip))
	for i := len(t.middleware) - 1; i >= 0; i-- {
		mw := t.middleware[i]
		next := current
		current = TransportFunc(func(ctx context.Context, desc RequestDescriptor, header http.Header) (*Response, error) {
			return mw(ctx, desc, header, next)
		})
	}
	return current.Do(ctx, desc, header)
}

func (t *HTTPTransport) roundTrip(ctx context.Context, desc RequestDescriptor, header http.Header) (*Response, error) {
	var body io.Reader
	if len(desc.Body) > 0 {
		body = bytes.NewReader(desc.Body)
	}

	req, err := http.NewRequestWithContext(ctx, desc.Method, desc.URL, body)
	if err != nil {
		return nil, NewTransportError(err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if desc.ContentType != "" {
		req.Header.Set("Content-Type", desc.ContentType)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, NewTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Classify maps a non-2xx response to the engine's error taxonomy: 429 to a
// rate-limit error carrying the Retry-After hint, 401 to an authentication
// error, 400 to a bad-request error, anything else non-2xx to a remote
// error. 2xx yields nil.
func Classify(resp *Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		raw := resp.Header.Get("Retry-After")
		clientErr := NewRateLimitedError(parseRetryAfter(raw))
		clientErr.RetryAfterHeader = raw
		return clientErr
	case resp.StatusCode == http.StatusUnauthorized:
		return NewUnauthorizedError(string(resp.Body))
	case resp.StatusCode == http.StatusBadRequest:
		return NewBadRequestError(string(resp.Body))
	default:
		return NewRemoteError(resp.StatusCode, string(resp.Body))
	}
}
