package features

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"phishjudge/pkg/common"
	"phishjudge/pkg/logger"
	"phishjudge/pkg/page"
	"phishjudge/pkg/probe"
)

// Func computes one feature. It must only read from in.
type Func func(in *Input) Score

// Definition binds a feature name to its function and the value used when the
// function panics or returns something out of range.
type Definition struct {
	Name     string
	Func     Func
	Fallback Score
}

// Definitions is the feature table in vector order.
var Definitions = [Count]Definition{
	{Names[HavingIPAddress], ipAddress, Unknown},
	{Names[URLLength], urlLength, Unknown},
	{Names[ShorteningService], shortener, Unknown},
	{Names[HavingAtSymbol], atSymbol, Unknown},
	{Names[DoubleSlashRedirecting], doubleSlash, Unknown},
	{Names[PrefixSuffix], prefixSuffix, Unknown},
	{Names[HavingSubDomain], subDomain, Unknown},
	{Names[SSLFinalState], sslFinalState, Unknown},
	{Names[DomainRegistrationLength], registrationSpan, Unknown},
	{Names[Favicon], favicon, Unknown},
	{Names[Port], port, Unknown},
	{Names[HTTPSToken], httpsToken, Unknown},
	{Names[RequestURL], requestURL, Unknown},
	{Names[URLOfAnchor], urlOfAnchor, Unknown},
	{Names[LinksInTags], linksInTags, Unknown},
	{Names[SFH], sfh, Unknown},
	{Names[SubmittingToEmail], submittingToEmail, Unknown},
	{Names[AbnormalURL], abnormalURL, Suspicious},
	{Names[Redirect], redirect, Unknown},
	{Names[OnMouseover], onMouseover, Unknown},
	{Names[RightClick], rightClick, Unknown},
	{Names[PopUpWindow], popUpWindow, Unknown},
	{Names[Iframe], iframe, Unknown},
	{Names[AgeOfDomain], ageOfDomain, Unknown},
	{Names[DNSRecord], dnsRecord, Suspicious},
	{Names[WebTraffic], webTraffic, Benign},
	{Names[PageRank], pageRank, Benign},
	{Names[GoogleIndex], googleIndex, Unknown},
	{Names[LinksPointingToPage], linksPointingToPage, Unknown},
}

// Prober is the network boundary the extractor depends on.
type Prober interface {
	Fetch(ctx context.Context, rawURL string) probe.FetchResult
	ResolveDNS(ctx context.Context, host string) bool
	Whois(ctx context.Context, host string) probe.WhoisRecord
}

// Extraction is the result of one Extract call.
type Extraction struct {
	URL    string
	Vector Vector
	// Report is the blacklist score, fed to the model after the vector.
	Report       Score
	Status       int
	Redirects    []probe.Hop
	Resolved     bool
	WhoisPresent bool
	Errors       []string
	Duration     time.Duration
}

type Options struct {
	// Parallel evaluates feature functions on separate goroutines.
	Parallel bool
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type Extractor struct {
	prober    Prober
	ranks     RankSource
	blacklist BlacklistSource
	opts      Options
	log       logger.Logger
}

func NewExtractor(p Prober, ranks RankSource, blacklist BlacklistSource, opts Options, log logger.Logger) *Extractor {
	if ranks == nil {
		ranks = noRanks{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Extractor{prober: p, ranks: ranks, blacklist: blacklist, opts: opts, log: log}
}

// Extract normalizes rawURL, runs the probes concurrently, then evaluates every
// feature. It always returns a complete vector; probe failures are recorded in
// Errors and mapped to each feature's no-evidence value.
func (e *Extractor) Extract(ctx context.Context, rawURL string) *Extraction {
	start := time.Now()
	target := common.NormalizeURL(rawURL)
	host := common.StripPort(common.Domain(target))

	var (
		fetch    probe.FetchResult
		whois    probe.WhoisRecord
		resolved bool
	)
	var g errgroup.Group
	g.Go(func() error {
		fetch = e.prober.Fetch(ctx, target)
		return nil
	})
	g.Go(func() error {
		resolved = e.prober.ResolveDNS(ctx, host)
		return nil
	})
	g.Go(func() error {
		whois = e.prober.Whois(ctx, host)
		return nil
	})
	_ = g.Wait()

	in := NewInput(target, page.Parse(fetch.Body), fetch, whois, resolved, e.ranks, e.opts.Now())
	vector, panics := Evaluate(in, e.opts.Parallel)

	ext := &Extraction{
		URL:          target,
		Vector:       vector,
		Report:       StatisticalReport(e.blacklist, host),
		Status:       fetch.StatusCode,
		Redirects:    fetch.Redirects,
		Resolved:     resolved,
		WhoisPresent: whois.Present,
	}

	if fetch.Err != nil {
		ext.Errors = append(ext.Errors, "fetch:"+fetch.Err.Error())
	}
	if fetch.TooManyRedirects {
		ext.Errors = append(ext.Errors, fmt.Sprintf("fetch:stopped after %d redirects", fetch.RedirectCount()))
	}
	if !resolved {
		ext.Errors = append(ext.Errors, "dns:unresolved")
	}
	if whois.Err != nil {
		ext.Errors = append(ext.Errors, "whois:"+whois.Err.Error())
	}
	ext.Errors = append(ext.Errors, panics...)
	ext.Duration = time.Since(start)

	if len(ext.Errors) > 0 {
		e.log.Debug("extraction degraded",
			logger.String("url", target),
			logger.Strings("errors", ext.Errors),
		)
	}
	return ext
}

// Evaluate runs every feature against in. Panicking or out-of-range functions
// get their fallback value and are reported as "feature:<name>:<cause>".
func Evaluate(in *Input, parallel bool) (Vector, []string) {
	var (
		v      Vector
		faults [Count]string
	)
	if parallel {
		var wg sync.WaitGroup
		for i := range Definitions {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v[i], faults[i] = evaluateOne(Definitions[i], in)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range Definitions {
			v[i], faults[i] = evaluateOne(Definitions[i], in)
		}
	}

	var errs []string
	for _, f := range faults {
		if f != "" {
			errs = append(errs, f)
		}
	}
	return v, errs
}

func evaluateOne(def Definition, in *Input) (s Score, fault string) {
	defer func() {
		if r := recover(); r != nil {
			s = def.Fallback
			fault = fmt.Sprintf("feature:%s:panic: %v", def.Name, r)
		}
	}()
	s = def.Func(in)
	if !s.Valid() {
		return def.Fallback, fmt.Sprintf("feature:%s:invalid score %d", def.Name, s)
	}
	return s, ""
}
