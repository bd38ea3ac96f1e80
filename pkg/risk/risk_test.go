package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishjudge/pkg/features"
)

func allBenign() features.Vector {
	var v features.Vector
	for i := range v {
		v[i] = features.Benign
	}
	return v
}

func TestWarnings_AllBenign(t *testing.T) {
	assert.Equal(t, []string{NoRisk}, Warnings(allBenign()))

	var unknown features.Vector
	assert.Equal(t, []string{NoRisk}, Warnings(unknown))
}

func TestWarnings_IPAddress(t *testing.T) {
	v := allBenign()
	v[features.HavingIPAddress] = features.Suspicious
	assert.Equal(t, []string{"URL uses an IP address instead of a domain"}, Warnings(v))
}

func TestWarnings_Order(t *testing.T) {
	v := allBenign()
	v[features.Iframe] = features.Suspicious
	v[features.AgeOfDomain] = features.Suspicious
	v[features.URLLength] = features.Suspicious
	v[features.HavingSubDomain] = features.Suspicious
	v[features.DNSRecord] = features.Suspicious
	v[features.DoubleSlashRedirecting] = features.Suspicious
	v[features.HavingAtSymbol] = features.Suspicious
	v[features.HavingIPAddress] = features.Suspicious
	v[features.WebTraffic] = features.Suspicious

	assert.Equal(t, []string{
		"URL uses an IP address instead of a domain",
		"URL contains an @ symbol",
		"URL contains a double-slash redirect",
		"Domain has no DNS record",
		"Too many subdomains",
		"URL is unusually long",
		"Domain is younger than 6 months",
		"Page embeds an iframe",
	}, Warnings(v))
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		p    float64
		tier Tier
	}{
		{0, Low}, {0.5, Low}, {0.51, Medium}, {0.6, Medium},
		{0.61, High}, {0.8, High}, {0.81, Critical}, {1, Critical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.tier, TierFor(tt.p), "p=%v", tt.p)
	}
}

func TestAssess_IPURLScenario(t *testing.T) {
	v := allBenign()
	v[features.HavingIPAddress] = features.Suspicious
	v[features.HavingAtSymbol] = features.Suspicious
	v[features.DoubleSlashRedirecting] = features.Suspicious
	v[features.SSLFinalState] = features.Suspicious

	a := Assess(v, features.Suspicious, 0.7)
	assert.Equal(t, High, a.Tier)
	require.Len(t, a.Warnings, 4)
	assert.Equal(t, BlacklistHit, a.Warnings[0])
	assert.Equal(t, "URL uses an IP address instead of a domain", a.Warnings[1])
	assert.Equal(t, "URL contains an @ symbol", a.Warnings[2])
	assert.Equal(t, "URL contains a double-slash redirect", a.Warnings[3])

	assert.Equal(t, Critical, Assess(v, features.Benign, 0.95).Tier)
	assert.NotContains(t, Assess(v, features.Benign, 0.95).Warnings, BlacklistHit)
}
