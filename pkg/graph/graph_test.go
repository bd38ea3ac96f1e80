package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	p := params(Observation{
		ID:          "abc",
		URL:         "https://Login.Evil.com:8443/x",
		Label:       "phishing",
		Probability: 0.9,
		Tier:        "critical",
		CheckedAt:   at,
		Redirects:   []string{"http://bit.ly/abc", "https://tracker.net/r"},
	})

	assert.Equal(t, "login.evil.com", p["domain"])
	assert.Equal(t, "2024-06-01T10:00:00Z", p["checked_at"])
	assert.Equal(t, 0.9, p["probability"])

	hops, ok := p["hops"].([]any)
	require.True(t, ok)
	require.Len(t, hops, 2)
	first := hops[0].(map[string]any)
	assert.Equal(t, "bit.ly", first["domain"])
	assert.Equal(t, 1, first["position"])
	assert.Equal(t, "tracker.net", hops[1].(map[string]any)["domain"])
}

func TestParams_NoRedirectsAndBadURL(t *testing.T) {
	p := params(Observation{URL: "::"})
	assert.Equal(t, "unknown", p["domain"])
	assert.Empty(t, p["hops"])
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NoError(t, r.Record(context.Background(), Observation{URL: "https://a.com"}))
	assert.NoError(t, r.Close(context.Background()))
}
