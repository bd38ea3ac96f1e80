package probe

import (
	"context"
	"strings"

	"github.com/miekg/dns"

	"phishjudge/pkg/common"
	"phishjudge/pkg/logger"
)

// ResolveDNS reports whether host has at least one A record. Resolvers are
// tried in order until one answers; a NXDOMAIN or empty answer is final.
func (p *Prober) ResolveDNS(ctx context.Context, host string) bool {
	host = strings.Trim(common.StripPort(strings.ToLower(host)), "[]")
	if host == "" {
		return false
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	m.RecursionDesired = true

	for _, server := range p.cfg.DNSServers {
		qctx, cancel := context.WithTimeout(ctx, p.cfg.DNSTimeout)
		in, _, err := p.dnsClient.ExchangeContext(qctx, m, server)
		cancel()
		if err != nil || in == nil {
			p.log.Debug("dns exchange failed", logger.String("host", host), logger.String("server", server), logger.Error(err))
			if ctx.Err() != nil {
				return false
			}
			continue
		}

		if in.Rcode != dns.RcodeSuccess {
			return false
		}
		for _, rr := range in.Answer {
			if _, ok := rr.(*dns.A); ok {
				return true
			}
		}
		return false
	}
	return false
}
