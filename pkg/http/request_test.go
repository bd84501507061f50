package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_RemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"

	assert.Equal(t, "203.0.113.7", ExtractClientIP(r, nil))
}

func TestExtractClientIP_ForwardedIgnoredFromUntrustedPeer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	assert.Equal(t, "203.0.113.7", ExtractClientIP(r, cfg))
}

func TestExtractClientIP_ForwardedFromTrustedProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.1.2.3")

	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	assert.Equal(t, "198.51.100.9", ExtractClientIP(r, cfg))
}

func TestExtractClientIP_RealIPFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Real-IP", "198.51.100.10")

	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	assert.Equal(t, "198.51.100.10", ExtractClientIP(r, cfg))
}
