package common

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

var (
	dottedQuadRe = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
	whoisDayRe   = regexp.MustCompile(`(\d{8})`)
)

// NormalizeURL ensures a URL has a scheme.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	lower := strings.ToLower(rawURL)
	if rawURL != "" && !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "https://" + rawURL
	}
	return rawURL
}

func parse(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &url.URL{}
	}
	return u
}

// Domain returns the lower-cased host of rawURL including any port.
func Domain(rawURL string) string {
	return strings.ToLower(parse(rawURL).Host)
}

// Scheme returns the lower-cased scheme of rawURL.
func Scheme(rawURL string) string {
	return strings.ToLower(parse(rawURL).Scheme)
}

// Path returns the lower-cased path of rawURL.
func Path(rawURL string) string {
	return strings.ToLower(parse(rawURL).Path)
}

// Port returns the explicit port of rawURL, or "" when none is given.
func Port(rawURL string) string {
	return parse(rawURL).Port()
}

// Hostname returns the host of rawURL without port and without IPv6 brackets.
func Hostname(rawURL string) string {
	return strings.ToLower(parse(rawURL).Hostname())
}

// StripPort removes a trailing ":port" from a host. Bracketed IPv6 literals
// keep their brackets so the result still round-trips through url.Parse.
func StripPort(host string) string {
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end != -1 {
			return host[:end+1]
		}
		return host
	}
	if i := strings.LastIndex(host, ":"); i != -1 && strings.Count(host, ":") == 1 {
		return host[:i]
	}
	return host
}

// IsIPHost reports whether host (port already stripped or not) is an IP literal.
func IsIPHost(host string) bool {
	host = strings.Trim(StripPort(host), "[]")
	if host == "" {
		return false
	}
	return net.ParseIP(host) != nil || dottedQuadRe.MatchString(host)
}

// HostOf extracts a bare, lower-cased host from either a URL or a plain
// domain. Unicode labels are folded to punycode.
func HostOf(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	host := Hostname(NormalizeURL(s))
	if host == "" {
		return ""
	}
	host = strings.TrimSuffix(host, ".")
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}

// ApexDomain returns the registrable domain (eTLD+1) of host.
func ApexDomain(host string) (string, error) {
	return publicsuffix.EffectiveTLDPlusOne(strings.Trim(StripPort(host), "[]"))
}

// SameSite reports whether two hosts belong to the same registrable domain.
// IP literals and hosts without a known suffix must match exactly.
func SameSite(a, b string) bool {
	a = strings.ToLower(StripPort(a))
	b = strings.ToLower(StripPort(b))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if IsIPHost(a) || IsIPHost(b) {
		return false
	}
	apexA, errA := ApexDomain(a)
	apexB, errB := ApexDomain(b)
	if errA != nil || errB != nil {
		return false
	}
	return apexA == apexB
}

// CanonicalizeURL standardizes a URL for dedup keys.
func CanonicalizeURL(u *url.URL) string {
	// Convert scheme and host to lowercase
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u.String()
}

// CanonicalizeRaw canonicalizes a raw URL string, returning the normalized
// input unchanged when it cannot be parsed.
func CanonicalizeRaw(rawURL string) string {
	normalized := NormalizeURL(rawURL)
	u, err := url.Parse(normalized)
	if err != nil {
		return normalized
	}
	return CanonicalizeURL(u)
}

// ParseWhoisDate tries multiple common layouts to parse a date string.
func ParseWhoisDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	// First, try to find a YYYYMMDD format anywhere in the string.
	if match := whoisDayRe.FindStringSubmatch(raw); len(match) > 1 {
		if t, err := time.Parse("20060102", match[1]); err == nil {
			return t, true
		}
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"02-Jan-2006",
		"2006/01/02",
		"2006.01.02",
		"02.01.2006",
		"2006-01-02 15:04:05 MST",
		time.RFC1123,
		time.RFC1123Z,
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
