package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProberHTTPHealthAcceptsGatedAuth(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNoContent, http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		p := NewProber("gateway", server.URL, "127.0.0.1", time.Second, server.URL, "", "")
		assert.True(t, p.HTTPHealth(context.Background()), "status %d should count as healthy", status)

		server.Close()
	}
}

func TestProberHTTPHealthRejectsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewProber("gateway", server.URL, "127.0.0.1", time.Second, server.URL, "", "")
	assert.False(t, p.HTTPHealth(context.Background()))
}

func TestProberExternalReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewProber("gateway", server.URL, "127.0.0.1", time.Second, server.URL, "", "")
	assert.True(t, p.ExternalReachable(context.Background()))
}

func TestProberProxyOKWithoutProxyConfigured(t *testing.T) {
	p := NewProber("gateway", "http://127.0.0.1", "127.0.0.1", time.Second, "http://127.0.0.1", "", "")
	assert.True(t, p.ProxyOK(context.Background()))
}
