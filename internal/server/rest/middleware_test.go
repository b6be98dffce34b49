package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"github.com/dmitrijs2005/backoffice/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID_GeneratesAndReuses(t *testing.T) {
	var seen string
	h := requestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		got, ok := bearerToken(req)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{common.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w: x", common.ErrSubjectNotFound), http.StatusUnauthorized},
		{fmt.Errorf("wrap: %w", common.ErrPermissionDenied), http.StatusForbidden},
		{fmt.Errorf("user x: %w", common.ErrorNotFound), http.StatusNotFound},
		{fmt.Errorf("user %w", common.ErrorAlreadyExists), http.StatusForbidden},
		{common.ErrorValidation, http.StatusUnprocessableEntity},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, detail := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.NotEmpty(t, detail)
	}

	_, detail := statusFor(errors.New("pq: password authentication failed for user x"))
	assert.Equal(t, "internal error", detail)
}

func TestLoginRateLimiter(t *testing.T) {
	l := newLoginRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.lastPrune = now

	ok, _ := l.allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.allow("10.0.0.1")
	assert.True(t, ok)
	ok, delay := l.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, delay, time.Duration(0))

	ok, _ = l.allow("10.0.0.2")
	assert.True(t, ok, "clients are isolated")

	now = now.Add(time.Second)
	ok, _ = l.allow("10.0.0.1")
	assert.True(t, ok, "tokens refill over time")
}

func TestLoginRateLimiter_PrunesIdleClients(t *testing.T) {
	l := newLoginRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.lastPrune = now

	l.allow("10.0.0.1")
	now = now.Add(limiterIdleTTL + time.Minute)
	l.allow("10.0.0.2")

	assert.NotContains(t, l.clients, "10.0.0.1")
	assert.Contains(t, l.clients, "10.0.0.2")
}

func TestGuarded_RequiresHardGate(t *testing.T) {
	api := newTestAPI(t)

	assert.Panics(t, func() { api.h.guarded(isAdmin, api.h.me) })
	assert.NotPanics(t, func() { api.h.guarded(adminOnly, api.h.me) })
}

func TestLoginEndpoint_RateLimited(t *testing.T) {
	api := newTestAPI(t)
	api.handler = api.h.Routes(RouterConfig{LoginRateLimit: 0.001, LoginRateBurst: 1})
	api.register("alice", "pw")

	assert.Equal(t, http.StatusUnauthorized, api.login("alice", "bad").Code)
	rec := api.login("alice", "pw")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestCORS_Preflight(t *testing.T) {
	api := newTestAPI(t)
	h := api.h.Routes(RouterConfig{LoginRateLimit: 10, LoginRateBurst: 10, CORSAllowedOrigins: []string{"https://admin.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/user/me", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPServer_RunStopsOnCancel(t *testing.T) {
	listen, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewHTTPServer(listen.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, listen) }()

	resp, err := http.Get("http://" + listen.Addr().String() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHTTPServer_RunFailsOnBadAddress(t *testing.T) {
	s := NewHTTPServer("256.0.0.1:bad", http.NotFoundHandler(), logging.Nop{})
	assert.Error(t, s.Run(context.Background()))
}
