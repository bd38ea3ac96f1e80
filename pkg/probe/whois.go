package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	whoisparser "github.com/likexian/whois-parser"

	"phishjudge/pkg/common"
	"phishjudge/pkg/logger"
)

var errIPHost = errors.New("whois skipped for ip literal")

// WhoisRecord is what the features need from a WHOIS answer. Zero times
// mean the date was missing or unparseable.
type WhoisRecord struct {
	Present    bool
	DomainName string
	Created    time.Time
	Expires    time.Time
	Updated    time.Time
	Err        error
}

// Whois queries the registry for the apex domain of host.
func (p *Prober) Whois(ctx context.Context, host string) WhoisRecord {
	host = common.StripPort(strings.ToLower(host))
	if host == "" {
		return WhoisRecord{Err: errors.New("empty host")}
	}
	if common.IsIPHost(host) {
		return WhoisRecord{Err: errIPHost}
	}

	apexDomain, err := common.ApexDomain(host)
	if err != nil {
		return WhoisRecord{Err: fmt.Errorf("could not determine apex domain for '%s': %w", host, err)}
	}

	type whoisResult struct {
		raw string
		err error
	}
	resultChan := make(chan whoisResult, 1)

	go func() {
		raw, err := p.whoisClient.Whois(apexDomain)
		resultChan <- whoisResult{raw: raw, err: err}
	}()

	qctx, cancel := context.WithTimeout(ctx, p.cfg.WhoisTimeout)
	defer cancel()

	select {
	case <-qctx.Done():
		return WhoisRecord{Err: fmt.Errorf("whois lookup for '%s': %w", apexDomain, qctx.Err())}
	case res := <-resultChan:
		if res.err != nil {
			p.log.Debug("whois lookup failed", logger.String("domain", apexDomain), logger.Error(res.err))
			return WhoisRecord{Err: fmt.Errorf("whois lookup for '%s' failed: %w", apexDomain, res.err)}
		}
		return parseWhois(apexDomain, res.raw)
	}
}

// parseWhois recovers from panics inside whois-parser, which trips on some
// registries' formats.
func parseWhois(domain, raw string) (rec WhoisRecord) {
	defer func() {
		if r := recover(); r != nil {
			rec = WhoisRecord{Err: fmt.Errorf("recovered from panic in whoisparser for domain %s: %v", domain, r)}
		}
	}()

	info, err := whoisparser.Parse(raw)
	if err != nil {
		return WhoisRecord{Err: fmt.Errorf("whoisparser for '%s' failed: %w", domain, err)}
	}
	return recordFromInfo(info)
}

func recordFromInfo(info whoisparser.WhoisInfo) WhoisRecord {
	if info.Domain == nil {
		return WhoisRecord{Err: errors.New("whois answer has no domain section")}
	}

	rec := WhoisRecord{DomainName: strings.ToLower(info.Domain.Domain)}
	rec.Present = rec.DomainName != ""
	if created, ok := common.ParseWhoisDate(info.Domain.CreatedDate); ok {
		rec.Created = created
	}
	if expires, ok := common.ParseWhoisDate(info.Domain.ExpirationDate); ok {
		rec.Expires = expires
	}
	if updated, ok := common.ParseWhoisDate(info.Domain.UpdatedDate); ok {
		rec.Updated = updated
	}
	return rec
}
