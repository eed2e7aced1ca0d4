package netutil

import (
	"fmt"
	"net"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAvailablePortForAddress(t *testing.T) {
	port, err := GetAvailablePortForAddress("localhost")
	require.NoError(t, err)
	assert.True(t, port > 0)

	lis, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	require.NoError(t, err)
	require.NoError(t, lis.Close())
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")

	assert.Equal(t, "10.0.0.1", GetClientIP(r, false))
	assert.Equal(t, "203.0.113.7", GetClientIP(r, true))

	r.Header.Set("X-Forwarded-For", "garbage")
	assert.Equal(t, "10.0.0.1", GetClientIP(r, true))

	r.RemoteAddr = "[::1]:443"
	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "::1", GetClientIP(r, true))

	r.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", GetClientIP(r, false))
}

func TestNormalizeOrigin(t *testing.T) {
	for value, expected := range map[string]string{
		"*":                          "*",
		"https://example.com":        "https://example.com",
		"http://localhost:3000":      "http://localhost:3000",
		"https://Sub.Example.co.uk/": "https://sub.example.co.uk",
		"https://example.com.":       "https://example.com",
		"https://bücher.example":     "https://xn--bcher-kva.example",
		"http://127.0.0.1:8080":      "http://127.0.0.1:8080",
		"http://[::1]:8080":          "http://[::1]:8080",
	} {
		actual, err := NormalizeOrigin(value)
		require.NoError(t, err, value)
		assert.Equal(t, expected, actual, value)
	}

	for _, invalid := range []string{
		"",
		"example.com",
		"ftp://example.com",
		"https://example.com/path",
		"https://example.com?query=1",
		"https://user@example.com",
		"https://" + strings.Repeat("a", 254),
	} {
		_, err := NormalizeOrigin(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestNormalizeDomainName(t *testing.T) {
	actual, err := NormalizeDomainName("Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "example.com", actual)

	actual, err = NormalizeDomainName("bücher.example")
	require.NoError(t, err)
	assert.Equal(t, "xn--bcher-kva.example", actual)

	for _, invalid := range []string{"", ".", strings.Repeat("a", 254), "under_score.example"} {
		_, err := NormalizeDomainName(invalid)
		assert.Error(t, err, invalid)
	}
}
