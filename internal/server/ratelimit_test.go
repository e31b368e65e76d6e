package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenBlocked(t *testing.T) {
	l := newRateLimiter(10)

	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("203.0.113.5"), "request %d", i+1)
	}
	assert.False(t, l.Allow("203.0.113.5"))

	// Other clients keep their own bucket
	assert.True(t, l.Allow("203.0.113.6"))
}

func TestRateLimiter_DisabledWhenZero(t *testing.T) {
	l := newRateLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("203.0.113.5"))
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/analyze", nil)
	r.RemoteAddr = "198.51.100.7:61234"
	assert.Equal(t, "198.51.100.7", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
