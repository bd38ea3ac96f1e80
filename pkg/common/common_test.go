package common

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"HTTPS://Example.com", "HTTPS://Example.com"},
		{"  example.com/a  ", "https://example.com/a"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestAccessors(t *testing.T) {
	raw := "HTTPS://Sub.Example.COM:8443/Login/Index.html?x=1"
	assert.Equal(t, "sub.example.com:8443", Domain(raw))
	assert.Equal(t, "https", Scheme(raw))
	assert.Equal(t, "/login/index.html", Path(raw))
	assert.Equal(t, "8443", Port(raw))
	assert.Equal(t, "sub.example.com", Hostname(raw))
}

func TestAccessorsNeverFail(t *testing.T) {
	for _, raw := range []string{"", "::::", "http://[::1", "%zz", "https://a b.com/", "garbage"} {
		t.Run(raw, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_ = Domain(raw)
				_ = Scheme(raw)
				_ = Path(raw)
				_ = Port(raw)
				_ = Hostname(raw)
			})
		})
	}
	assert.Equal(t, "", Domain("%zz"))
	assert.Equal(t, "", Scheme("https://a b.com/"))
}

func TestStripPort(t *testing.T) {
	assert.Equal(t, "example.com", StripPort("example.com:8080"))
	assert.Equal(t, "example.com", StripPort("example.com"))
	assert.Equal(t, "[::1]", StripPort("[::1]:443"))
	assert.Equal(t, "::1", StripPort("::1"))
	assert.Equal(t, "", StripPort(""))
}

func TestIsIPHost(t *testing.T) {
	assert.True(t, IsIPHost("192.168.0.1"))
	assert.True(t, IsIPHost("192.168.0.1:8080"))
	assert.True(t, IsIPHost("[2001:db8::1]"))
	assert.True(t, IsIPHost("2001:db8::1"))
	assert.False(t, IsIPHost("example.com"))
	assert.False(t, IsIPHost(""))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "evil.example", HostOf("https://Evil.Example/login"))
	assert.Equal(t, "evil.example", HostOf("evil.example."))
	assert.Equal(t, "xn--mnchen-3ya.de", HostOf("münchen.de"))
	assert.Equal(t, "", HostOf("   "))
}

func TestSameSite(t *testing.T) {
	assert.True(t, SameSite("example.com", "cdn.example.com"))
	assert.True(t, SameSite("www.example.co.uk:443", "static.example.co.uk"))
	assert.False(t, SameSite("example.com", "example.org"))
	assert.False(t, SameSite("10.0.0.1", "10.0.0.2"))
	assert.True(t, SameSite("10.0.0.1", "10.0.0.1:80"))
	assert.False(t, SameSite("", "example.com"))
}

func TestCanonicalizeURL(t *testing.T) {
	u, err := url.Parse("HTTP://Example.COM/Path#frag")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/Path", CanonicalizeURL(u))
	assert.Equal(t, "https://example.com/a", CanonicalizeRaw("Example.com/a#top"))
	assert.Equal(t, CanonicalizeRaw("https://example.com/"), CanonicalizeRaw("EXAMPLE.com"))
}

func TestParseWhoisDate(t *testing.T) {
	want := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2020-01-02", "20200102", "2020-01-02T00:00:00Z", "02-Jan-2020", "2020/01/02"} {
		t.Run(raw, func(t *testing.T) {
			got, ok := ParseWhoisDate(raw)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}

	_, ok := ParseWhoisDate("")
	assert.False(t, ok)
	_, ok = ParseWhoisDate("not a date")
	assert.False(t, ok)
}
