// Package risk turns a feature vector into readable warnings and maps a
// model probability to a severity tier.
package risk

import "phishjudge/pkg/features"

type Tier string

const (
	Low      Tier = "low"
	Medium   Tier = "medium"
	High     Tier = "high"
	Critical Tier = "critical"
)

// NoRisk is the only warning emitted when nothing fires.
const NoRisk = "No significant risk detected"

// BlacklistHit is emitted first when the domain is blacklisted.
const BlacklistHit = "Domain is on the local blacklist"

type rule struct {
	index   int
	message string
}

// Groups are emitted in this order, and rules in table order within a group.
var (
	highRisk = []rule{
		{features.HavingIPAddress, "URL uses an IP address instead of a domain"},
		{features.ShorteningService, "URL uses a link shortening service"},
		{features.HavingAtSymbol, "URL contains an @ symbol"},
		{features.DoubleSlashRedirecting, "URL contains a double-slash redirect"},
		{features.PrefixSuffix, "Domain name contains a hyphen"},
		{features.AbnormalURL, "No WHOIS record for the domain"},
		{features.DNSRecord, "Domain has no DNS record"},
	}
	subdomainRisk = []rule{
		{features.HavingSubDomain, "Too many subdomains"},
	}
	mediumRisk = []rule{
		{features.URLLength, "URL is unusually long"},
		{features.DomainRegistrationLength, "Domain is registered for a year or less"},
		{features.HTTPSToken, "Domain name abuses the https token"},
		{features.Redirect, "Too many redirects"},
		{features.AgeOfDomain, "Domain is younger than 6 months"},
	}
	domRisk = []rule{
		{features.SFH, "Form submits to a blank or external handler"},
		{features.SubmittingToEmail, "Page submits data to an email address"},
		{features.OnMouseover, "Page rewrites the status bar on mouseover"},
		{features.PopUpWindow, "Page opens pop-up windows"},
		{features.Iframe, "Page embeds an iframe"},
	}
)

var groups = [][]rule{highRisk, subdomainRisk, mediumRisk, domRisk}

// Warnings lists the canned message of every suspicious feature in group
// order. It never returns an empty list.
func Warnings(v features.Vector) []string {
	return warnings(v, features.Benign)
}

func warnings(v features.Vector, report features.Score) []string {
	var out []string
	if report == features.Suspicious {
		out = append(out, BlacklistHit)
	}
	for _, group := range groups {
		for _, r := range group {
			if v[r.index] == features.Suspicious {
				out = append(out, r.message)
			}
		}
	}
	if len(out) == 0 {
		return []string{NoRisk}
	}
	return out
}

// TierFor buckets a phishing probability.
func TierFor(probability float64) Tier {
	switch {
	case probability > 0.8:
		return Critical
	case probability > 0.6:
		return High
	case probability > 0.5:
		return Medium
	default:
		return Low
	}
}

type Assessment struct {
	Tier     Tier
	Warnings []string
}

// Assess combines the rule warnings, including the blacklist report, with
// the probability tier.
func Assess(v features.Vector, report features.Score, probability float64) Assessment {
	return Assessment{
		Tier:     TierFor(probability),
		Warnings: warnings(v, report),
	}
}
