package features

import (
	"strings"

	"phishjudge/pkg/common"
)

const day = 24 * 60 * 60

func registrationSpan(in *Input) Score {
	created, expires := in.Whois.Created, in.Whois.Expires
	if created.IsZero() || expires.IsZero() {
		return Unknown
	}
	days := int(expires.Sub(created).Seconds()) / day
	if float64(days)/365.0 <= 1 {
		return Suspicious
	}
	return Benign
}

func abnormalURL(in *Input) Score {
	if in.Whois.Present {
		return Benign
	}
	return Suspicious
}

// redirect grades the redirect chain. A chain cut at the redirect limit
// counts like any long chain.
func redirect(in *Input) Score {
	n := in.Fetch.RedirectCount()
	if n > 2 || in.Fetch.TooManyRedirects {
		return Suspicious
	}
	if in.Fetch.Failed() {
		return Unknown
	}
	if n <= 1 {
		return Benign
	}
	return Unknown
}

func ageOfDomain(in *Input) Score {
	created := in.Whois.Created
	if created.IsZero() {
		return Unknown
	}
	days := int(in.Now.Sub(created).Seconds()) / day
	if float64(days)/30.0 < 6 {
		return Suspicious
	}
	return Benign
}

func dnsRecord(in *Input) Score {
	if in.Resolved {
		return Benign
	}
	return Suspicious
}

// rankScore grades popularity. Missing rank data is benign so that absent
// reference data does not push every URL towards phishing.
func rankScore(in *Input, benignCutoff int) Score {
	if !in.Ranks.Available() {
		return Benign
	}
	rank, ok := in.Ranks.RankOf(in.Hostname())
	switch {
	case !ok:
		return Unknown
	case rank <= benignCutoff:
		return Benign
	case rank <= 1000000:
		return Unknown
	default:
		return Suspicious
	}
}

func webTraffic(in *Input) Score { return rankScore(in, 100000) }

func pageRank(in *Input) Score { return rankScore(in, 200000) }

// googleIndex treats an explicit noindex as a sign the page hides from search.
func googleIndex(in *Input) Score {
	if in.Fetch.Failed() {
		return Unknown
	}
	if strings.Contains(strings.ToLower(in.Fetch.Header.Get("X-Robots-Tag")), "noindex") {
		return Suspicious
	}
	robots := in.Page.Matching("meta", []string{"name"}, func(_, v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "robots")
	})
	for _, m := range robots {
		if strings.Contains(strings.ToLower(m.AttrOr("content")), "noindex") {
			return Suspicious
		}
	}
	return Benign
}

// linksPointingToPage approximates inbound links by counting internal anchors.
// Landing pages with many internal links score as suspicious.
func linksPointingToPage(in *Input) Score {
	if in.Fetch.Failed() {
		return Unknown
	}
	anchors := in.Page.All("a")
	if len(anchors) == 0 {
		return Unknown
	}
	var internal int
	for _, a := range anchors {
		href := strings.TrimSpace(a.AttrOr("href"))
		if href == "" {
			continue
		}
		if h := refHost(href); h == "" || common.SameSite(h, in.Host()) {
			internal++
		}
	}
	switch {
	case internal >= 15:
		return Suspicious
	case internal >= 5:
		return Unknown
	default:
		return Benign
	}
}

// StatisticalReport scores blacklist membership of host or any parent domain.
// An empty or missing blacklist is benign.
func StatisticalReport(bl BlacklistSource, host string) Score {
	if bl == nil || !bl.Loaded() {
		return Benign
	}
	host = strings.TrimSuffix(strings.ToLower(common.StripPort(host)), ".")
	for host != "" {
		if bl.Contains(host) {
			return Suspicious
		}
		if common.IsIPHost(host) {
			break
		}
		_, parent, ok := strings.Cut(host, ".")
		if !ok || !strings.Contains(parent, ".") {
			break
		}
		host = parent
	}
	return Benign
}
