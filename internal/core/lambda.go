package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaAdapter serves API Gateway HTTP API (payload v2) events through an
// http.Handler, so the Lambda deployment uses the same router as the local
// listener.
type LambdaAdapter struct {
	handler http.Handler
}

// NewLambdaAdapter wraps h.
func NewLambdaAdapter(h http.Handler) *LambdaAdapter {
	return &LambdaAdapter{handler: h}
}

// Proxy converts the event into an *http.Request, runs the handler and
// converts the recorded response back. Handler failures are already encoded
// in the response; an error is returned only when the event is malformed.
func (a *LambdaAdapter) Proxy(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := requestFromEvent(ctx, event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	rw := newBufferedResponse()
	a.handler.ServeHTTP(rw, req)
	return rw.toEvent(), nil
}

func requestFromEvent(ctx context.Context, event events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	path := event.RawPath
	if path == "" {
		path = event.RequestContext.HTTP.Path
	}
	u := &url.URL{Path: path, RawQuery: event.RawQueryString}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 request body: %w", err)
		}
		body = decoded
	}

	method := event.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request from event: %w", err)
	}
	for name, value := range event.Headers {
		req.Header.Set(name, value)
	}
	if len(event.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(event.Cookies, "; "))
	}
	if req.Header.Get(requestIDHeader) == "" && event.RequestContext.RequestID != "" {
		req.Header.Set(requestIDHeader, event.RequestContext.RequestID)
	}
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP
	req.Host = req.Header.Get("Host")
	return req, nil
}

// bufferedResponse is an http.ResponseWriter that keeps the whole response in
// memory, as API Gateway needs it in one piece.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) toEvent() events.APIGatewayV2HTTPResponse {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}

	resp := events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    make(map[string]string, len(b.header)),
	}
	for name, values := range b.header {
		if http.CanonicalHeaderKey(name) == "Set-Cookie" {
			resp.Cookies = append(resp.Cookies, values...)
			continue
		}
		resp.Headers[name] = strings.Join(values, ",")
	}

	raw := b.body.Bytes()
	if b.header.Get("Content-Encoding") != "" || !utf8.Valid(raw) {
		resp.Body = base64.StdEncoding.EncodeToString(raw)
		resp.IsBase64Encoded = true
	} else {
		resp.Body = string(raw)
	}
	return resp
}
