package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/logger"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true)(ok)

	r := httptest.NewRequest(http.MethodGet, "http://sydneysamil.org/settings?x=1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusPermanentRedirect, w.Code)
	assert.Equal(t, "https://sydneysamil.org/settings?x=1", w.Header().Get("Location"))

	r = httptest.NewRequest(http.MethodGet, "http://sydneysamil.org/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodGet, "http://sydneysamil.org/", nil)
	w = httptest.NewRecorder()
	ForceHTTPS(false)(ok).ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	Security(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "img-src 'self' data: blob:")
}

func TestRequestLoggerSetsIDAndContextLogger(t *testing.T) {
	var sawLogger bool
	base := zap.NewNop().Sugar()

	r := chi.NewRouter()
	r.Use(RequestLogger(base))
	r.Get("/api/themes", func(w http.ResponseWriter, req *http.Request) {
		sawLogger = logger.FromContext(req.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/themes", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, sawLogger)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/api/themes", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecoverRendersTruncatedDetail(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("nil map write") }))
	w := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error.","detail":"nil map write"}`, w.Body.String())

	long := strings.Repeat("x", apperr.MaxInternalDetail+50)
	h = Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(long) }))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error.", body.Error)
	assert.Len(t, body.Detail, apperr.MaxInternalDetail)
}

func TestRecoverRepanicsOnAbort(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) }))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLimiterRefillsAndSweeps(t *testing.T) {
	l := NewLimiter(time.Minute, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Minute)
	assert.True(t, l.Allow("a"))

	now = now.Add(idleTTL + time.Second)
	l.Allow("c")
	l.mu.Lock()
	_, kept := l.clients["b"]
	l.mu.Unlock()
	assert.False(t, kept)
}

func TestCheckWrites429WithRetryAfter(t *testing.T) {
	l := NewLimiter(time.Minute, 1)
	req := func(ip string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("X-Forwarded-For", ip)
		return r
	}

	w := httptest.NewRecorder()
	assert.True(t, l.Check(w, req("192.0.2.1")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	assert.False(t, l.Check(w, req("192.0.2.1")))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests."}`, w.Body.String())

	assert.True(t, l.Check(httptest.NewRecorder(), req("192.0.2.2")))
}
