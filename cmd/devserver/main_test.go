package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConverter struct {
	got  events.APIGatewayProxyRequest
	resp events.APIGatewayProxyResponse
	err  error
}

func (c *recordingConverter) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	c.got = req
	return c.resp, c.err
}

func TestConvertRoute(t *testing.T) {
	conv := &recordingConverter{resp: events.APIGatewayProxyResponse{
		StatusCode: 200,
		Body:       `{"images": ["u1"]}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}}
	srv := httptest.NewServer(newRouter(conv))
	defer srv.Close()

	payload := []byte("--b\r\nContent-Type: application/pdf\r\n\r\n%PDF\r\n--b--\r\n")
	resp, err := http.Post(srv.URL+"/api/convert", "multipart/form-data; boundary=b", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `{"images": ["u1"]}`, string(body))

	assert.True(t, conv.got.IsBase64Encoded)
	decoded, err := base64.StdEncoding.DecodeString(conv.got.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
	assert.Equal(t, "multipart/form-data; boundary=b", conv.got.Headers["Content-Type"])
	assert.Equal(t, http.MethodPost, conv.got.HTTPMethod)
	assert.Equal(t, "/api/convert", conv.got.Path)
}

func TestConvertRoute_PassesErrorStatus(t *testing.T) {
	conv := &recordingConverter{resp: events.APIGatewayProxyResponse{
		StatusCode: 400,
		Body:       `{"error": "No PDF file found."}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}}
	router := newRouter(conv)

	req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `{"error": "No PDF file found."}`, rec.Body.String())
}

func TestConvertRoute_HandlerError(t *testing.T) {
	router := newRouter(&recordingConverter{err: errors.New("boom")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader("x")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConvertRoute_MethodNotAllowed(t *testing.T) {
	router := newRouter(&recordingConverter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/convert", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&recordingConverter{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
