package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRobotsChecker_DisallowedPath(t *testing.T) {
	srv := robotsServer(t, http.StatusOK, "User-agent: DontSign\nDisallow: /private\nCrawl-delay: 2\n", nil)
	checker := NewRobotsChecker(srv.Client(), "DontSign/0.1 (+https://example.com)")

	allowed, delay, err := checker.CanFetch(context.Background(), srv.URL+"/private/terms")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, err = checker.CanFetch(context.Background(), srv.URL+"/terms")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	srv := robotsServer(t, http.StatusNotFound, "", nil)
	checker := NewRobotsChecker(srv.Client(), "DontSign/0.1")

	allowed, _, err := checker.CanFetch(context.Background(), srv.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_CachesPerOrigin(t *testing.T) {
	var hits atomic.Int32
	srv := robotsServer(t, http.StatusOK, "User-agent: *\nAllow: /\n", &hits)
	checker := NewRobotsChecker(srv.Client(), "DontSign/0.1")

	for i := 0; i < 3; i++ {
		_, _, err := checker.CanFetch(context.Background(), srv.URL+"/terms")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())

	checker.Clear()
	_, _, err := checker.CanFetch(context.Background(), srv.URL+"/terms")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestRobotsChecker_RelativeURL(t *testing.T) {
	checker := NewRobotsChecker(nil, "DontSign/0.1")
	_, _, err := checker.CanFetch(context.Background(), "/terms")
	assert.Error(t, err)
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "DontSign", NormalizeUserAgent("DontSign/0.1 (+https://github.com/ppiankov/dontsign)"))
	assert.Equal(t, "curl", NormalizeUserAgent("curl"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}
