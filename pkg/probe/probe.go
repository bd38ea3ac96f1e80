// Package probe performs the side-effecting lookups behind feature
// extraction: an HTTP fetch with redirect history, a DNS A query and a WHOIS
// query. Every call is a single timeout-bounded attempt and never returns an
// error; failures are reported inside the result value.
package probe

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/likexian/whois"
	"github.com/miekg/dns"

	"phishjudge/pkg/logger"
)

type Config struct {
	HTTPTimeout        time.Duration
	InsecureSkipVerify bool
	UserAgent          string
	MaxRedirects       int
	MaxBodyBytes       int64
	DNSServers         []string
	DNSTimeout         time.Duration
	WhoisTimeout       time.Duration
}

// Prober holds the reusable clients for all three probes.
type Prober struct {
	cfg         Config
	httpClient  *http.Client
	dnsClient   *dns.Client
	whoisClient *whois.Client
	log         logger.Logger
}

// New creates a Prober. Zero values in cfg fall back to the defaults used by
// the service configuration.
func New(cfg Config, log logger.Logger) *Prober {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 30
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 << 20
	}
	if len(cfg.DNSServers) == 0 {
		cfg.DNSServers = []string{"8.8.8.8:53", "1.1.1.1:53"}
	}
	if cfg.DNSTimeout <= 0 {
		cfg.DNSTimeout = 5 * time.Second
	}
	if cfg.WhoisTimeout <= 0 {
		cfg.WhoisTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // configurable
	}

	whoisClient := whois.NewClient()
	whoisClient.SetTimeout(cfg.WhoisTimeout)

	return &Prober{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.HTTPTimeout,
		},
		dnsClient:   &dns.Client{Timeout: cfg.DNSTimeout},
		whoisClient: whoisClient,
		log:         log,
	}
}
