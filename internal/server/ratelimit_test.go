package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{"remote addr", "192.0.2.1:4321", nil, "192.0.2.1"},
		{"forwarded first valid", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "garbage, 203.0.113.7, 10.0.0.2"}, "203.0.113.7"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"invalid real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "nope"}, "10.0.0.1"},
		{"no port", "192.0.2.9", nil, "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/view", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, getClientIP(req))
		})
	}
}

func TestGetRateLimitKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/view", nil)
	req.RemoteAddr = "192.0.2.1:4321"

	assert.Equal(t, "ip:192.0.2.1", getRateLimitKey(req, true, true), "falls back to IP without a key")
	assert.Equal(t, "", getRateLimitKey(req, true, false))

	req.Header.Set("X-API-Key", "key-abc")
	assert.Equal(t, "api:key-abc", getRateLimitKey(req, true, true))
	assert.Equal(t, "ip:192.0.2.1", getRateLimitKey(req, false, true))
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, 1, nil)
	defer rl.Close()

	assert.True(t, rl.Allow("ip:a"))
	assert.False(t, rl.Allow("ip:a"))
	assert.True(t, rl.Allow("ip:b"))

	rl.mu.Lock()
	rl.lastSeen["ip:a"] = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.cleanup(time.Now(), limiterIdleTTL)
	assert.Equal(t, 1, rl.GetStats()["active_limiters"])

	// An evicted key starts with a full bucket again
	assert.True(t, rl.Allow("ip:a"))

	rl.Close()
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}
