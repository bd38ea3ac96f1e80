package features

import (
	"net/url"
	"strings"
	"time"

	"phishjudge/pkg/common"
	"phishjudge/pkg/page"
	"phishjudge/pkg/probe"
)

// RankSource answers popularity lookups. Available is false when there is no
// rank data at all.
type RankSource interface {
	Available() bool
	RankOf(domain string) (int, bool)
}

// BlacklistSource answers blacklist membership.
type BlacklistSource interface {
	Loaded() bool
	Contains(domain string) bool
}

type noRanks struct{}

func (noRanks) Available() bool           { return false }
func (noRanks) RankOf(string) (int, bool) { return 0, false }

// Input is everything a feature function may look at. All network data is
// gathered before any function runs.
type Input struct {
	URL      string
	Page     *page.Model
	Fetch    probe.FetchResult
	Whois    probe.WhoisRecord
	Resolved bool
	Ranks    RankSource
	Now      time.Time

	host     string
	hostname string
	scheme   string
}

// NewInput derives the URL components once. Nil Page and Ranks are replaced
// with their empty forms.
func NewInput(rawURL string, pg *page.Model, fetch probe.FetchResult, whois probe.WhoisRecord, resolved bool, ranks RankSource, now time.Time) *Input {
	if pg == nil {
		pg = page.Empty()
	}
	if ranks == nil {
		ranks = noRanks{}
	}
	if now.IsZero() {
		now = time.Now()
	}
	return &Input{
		URL:      rawURL,
		Page:     pg,
		Fetch:    fetch,
		Whois:    whois,
		Resolved: resolved,
		Ranks:    ranks,
		Now:      now,
		host:     common.Domain(rawURL),
		hostname: strings.TrimSuffix(common.StripPort(common.Domain(rawURL)), "."),
		scheme:   common.Scheme(rawURL),
	}
}

// Host is the lower-cased host including any port.
func (in *Input) Host() string { return in.host }

// Hostname is Host without the port.
func (in *Input) Hostname() string { return in.hostname }

// refHost returns the host a link points at, or "" for relative and
// scheme-only references.
func refHost(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// external reports whether ref points away from the page's site.
// Relative references are internal.
func (in *Input) external(ref string) bool {
	h := refHost(ref)
	return h != "" && !common.SameSite(h, in.host)
}
