package netutil

import (
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "ipv4 with port", input: "192.0.2.4:8080", expected: "192.0.2.4", ok: true},
		{name: "ipv6 with port", input: "[2001:db8::1]:443", expected: "2001:db8::1", ok: true},
		{name: "bracketed ipv6", input: "[::1]", expected: "::1", ok: true},
		{name: "plain ipv4", input: " 203.0.113.9 ", expected: "203.0.113.9", ok: true},
		{name: "zoned ipv6", input: "fe80::1%eth0", expected: "fe80::1", ok: true},
		{name: "garbage", input: "not-an-ip", expected: "not-an-ip", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeIP(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	r.Header.Set("X-Forwarded-For", "198.51.100.2, 10.0.0.1")

	assert.Equal(t, "198.51.100.2", ClientIP(r, true))
	assert.Equal(t, "10.0.0.7", ClientIP(r, false))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", ClientIP(r, true))
}

func TestTruncateUserAgent(t *testing.T) {
	assert.Equal(t, "curl/8.0", TruncateUserAgent("curl/8.0"))

	long := strings.Repeat("é", MaxUserAgentLength+10)
	got := TruncateUserAgent(long)
	assert.Equal(t, MaxUserAgentLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}
