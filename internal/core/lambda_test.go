package core

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lambdaEvent(method, path, query string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath:        path,
		RawQueryString: query,
		Headers:        map[string]string{"accept": "application/json"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: "apigw-req-1",
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: "203.0.113.7",
			},
		},
	}
}

func echoServer(t *testing.T) *Server {
	return newTestServer(t, func(r chi.Router) {
		r.Get("/echo", func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "seen", Value: "1"})
			JSON(w, r, http.StatusOK, APIResponse{Data: map[string]string{
				"city":   r.URL.Query().Get("city"),
				"accept": r.Header.Get("Accept"),
				"remote": r.RemoteAddr,
			}})
		})
		r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_, _ = w.Write(body)
		})
		r.Get("/big", func(w http.ResponseWriter, r *http.Request) {
			JSON(w, r, http.StatusOK, APIResponse{Data: strings.Repeat("rain ", 1000)})
		})
	})
}

func TestLambdaAdapter_Proxy(t *testing.T) {
	adapter := NewLambdaAdapter(echoServer(t).Handler())

	resp, err := adapter.Proxy(context.Background(), lambdaEvent(http.MethodGet, "/v1/echo", "city=S%C3%A3o+Paulo"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, resp.IsBase64Encoded)
	assert.Equal(t, "apigw-req-1", resp.Headers["X-Request-Id"])
	assert.Equal(t, []string{"seen=1"}, resp.Cookies)

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "São Paulo", body.Data["city"])
	assert.Equal(t, "application/json", body.Data["accept"])
	assert.Equal(t, "203.0.113.7", body.Data["remote"])
}

func TestLambdaAdapter_Base64RequestBody(t *testing.T) {
	adapter := NewLambdaAdapter(echoServer(t).Handler())

	event := lambdaEvent(http.MethodPost, "/v1/echo", "")
	event.Body = base64.StdEncoding.EncodeToString([]byte("hello"))
	event.IsBase64Encoded = true

	resp, err := adapter.Proxy(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Body)

	event.Body = "%%%"
	_, err = adapter.Proxy(context.Background(), event)
	assert.Error(t, err)
}

func TestLambdaAdapter_GzipBodyIsBase64(t *testing.T) {
	adapter := NewLambdaAdapter(echoServer(t).Handler())

	event := lambdaEvent(http.MethodGet, "/v1/big", "")
	event.Headers["accept-encoding"] = "gzip"

	resp, err := adapter.Proxy(context.Background(), event)
	require.NoError(t, err)
	require.True(t, resp.IsBase64Encoded)
	assert.Equal(t, "gzip", resp.Headers["Content-Encoding"])

	raw, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.True(t, json.Valid(plain))
}

func TestLambdaAdapter_UnknownRoute(t *testing.T) {
	adapter := NewLambdaAdapter(echoServer(t).Handler())

	resp, err := adapter.Proxy(context.Background(), lambdaEvent(http.MethodGet, "/v2/anything", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
