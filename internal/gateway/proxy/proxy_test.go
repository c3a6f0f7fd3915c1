package proxy

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, upstream http.HandlerFunc) *fiber.App {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	u := NewUpstream(srv.URL, "/api/v1", time.Second)
	app := fiber.New()
	app.All("/api/v1/room/*", u.Handler())
	app.Get("/ping", func(c fiber.Ctx) error {
		if err := u.Ping(); err != nil {
			return c.SendStatus(http.StatusServiceUnavailable)
		}
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func TestForwardRawKeepsPathAndQuery(t *testing.T) {
	app := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/room/items/abc", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("confirm"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		w.Header().Set("X-Upstream", "planner")
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/room/items/abc?confirm=true", nil)
	req.Header.Set("Authorization", "Bearer t")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "planner", resp.Header.Get("X-Upstream"))
}

func TestForwardJSONBody(t *testing.T) {
	app := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"x":10,"y":20}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/room/items/abc/position", bytes.NewBufferString(`{"x":10,"y":20}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestForwardMultipart(t *testing.T) {
	app := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/room/scan", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "room.jpg", header.Filename)
		assert.Equal(t, "jpeg-bytes", string(data))
		w.WriteHeader(http.StatusCreated)
	})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "room.jpg")
	require.NoError(t, err)
	part.Write([]byte("jpeg-bytes"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/room/scan", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUpstreamDown(t *testing.T) {
	u := NewUpstream("http://127.0.0.1:1", "/api/v1", 200*time.Millisecond)
	app := fiber.New()
	app.All("/api/v1/room/*", u.Handler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/room/svg", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Error(t, u.Ping())
}

func TestPing(t *testing.T) {
	app := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health/live", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
