package routes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/petpet/cache"
	"github.com/briangreenhill/petpet/internal/service"
	"github.com/briangreenhill/petpet/petpet"
)

type stubSource struct {
	calls atomic.Int32
	err   error
}

func (s *stubSource) Fetch(ctx context.Context, id int64) ([]byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("raw"), nil
}

type stubTransformer struct{}

func (stubTransformer) Transform(ctx context.Context, raw []byte, f petpet.Filter) ([]byte, error) {
	return []byte("GIF89a:" + f.Label()), nil
}

func newTestServer(t *testing.T, src *stubSource) *httptest.Server {
	t.Helper()
	svc := service.New(cache.NewMemoryStore(), src, stubTransformer{})
	s := New(ServerOptions{Svc: svc, Logger: zerolog.Nop()})
	ts := httptest.NewServer(s.Router)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestHome(t *testing.T) {
	ts := newTestServer(t, &stubSource{})
	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, infoText, body)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &stubSource{})
	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestImage_BinaryThenHit(t *testing.T) {
	src := &stubSource{}
	ts := newTestServer(t, src)

	resp, body := get(t, ts.URL+"/123.gif")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
	assert.Equal(t, "max-age=3600", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, "GIF89a:Cubic: Catmull-Rom", body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, again := get(t, ts.URL+"/123")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, body, again)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestImage_Modes(t *testing.T) {
	ts := newTestServer(t, &stubSource{})
	_, raw := get(t, ts.URL+"/5?speed=yes")

	resp, b64 := get(t, ts.URL+"/5?speed=yes&mode=base64")
	assert.Equal(t, "max-age=3600", resp.Header.Get("Cache-Control"))
	require.True(t, strings.HasPrefix(b64, "data:image/gif;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(b64, "data:image/gif;base64,"))
	require.NoError(t, err)
	assert.Equal(t, raw, string(decoded))
	assert.Equal(t, "GIF89a:Nearest Neighbor", raw)

	resp, js := get(t, ts.URL+"/5?speed=yes&mode=json")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var env map[string]string
	require.NoError(t, json.Unmarshal([]byte(js), &env))
	assert.Equal(t, "5", env["id"])
	assert.Equal(t, strings.TrimPrefix(b64, "data:image/gif;base64,"), env["imageData"])

	resp, fallback := get(t, ts.URL+"/5?speed=yes&mode=weird")
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
	assert.Equal(t, raw, fallback)
}

func TestImage_ForceRefresh(t *testing.T) {
	src := &stubSource{}
	ts := newTestServer(t, src)

	get(t, ts.URL+"/8")
	resp, _ := get(t, ts.URL+"/8?upd=true")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	resp, _ = get(t, ts.URL+"/8?upd=false")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestImage_InvalidID(t *testing.T) {
	src := &stubSource{}
	ts := newTestServer(t, src)

	resp, body := get(t, ts.URL+"/abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, body, "Invalid ID format")
	assert.Zero(t, src.calls.Load())
}

func TestImage_UpstreamFailure(t *testing.T) {
	ts := newTestServer(t, &stubSource{err: errors.New("dial tcp: no route to host")})

	resp, body := get(t, ts.URL+"/9")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "Error: "))
	assert.Contains(t, body, "no route to host")
}

type panicHandler struct{}

func (panicHandler) Handle(context.Context, service.Request) (*service.Response, error) {
	panic("boom")
}

func TestImage_PanicIsRecovered(t *testing.T) {
	s := New(ServerOptions{Svc: panicHandler{}, Logger: zerolog.Nop()})
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
