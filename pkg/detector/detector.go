// Package detector assembles a verdict for one URL: features, model
// probability, risk tier and warnings.
package detector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"phishjudge/pkg/classifier"
	"phishjudge/pkg/features"
	"phishjudge/pkg/graph"
	"phishjudge/pkg/logger"
	"phishjudge/pkg/metrics"
	"phishjudge/pkg/probe"
	"phishjudge/pkg/risk"
)

var ErrEmptyURL = errors.New("url is required")

type Label string

const (
	Phishing   Label = "phishing"
	Legitimate Label = "legitimate"
)

// Threshold is the probability above which a URL is labelled phishing.
const Threshold = 0.5

// Prediction and recording run after extraction and get their own deadlines,
// so an extraction that used up the check timeout still yields a verdict.
const (
	predictTimeout = 5 * time.Second
	recordTimeout  = 5 * time.Second
)

type Verdict struct {
	ID          string
	URL         string
	Label       Label
	Probability float64
	Confidence  float64
	Tier        risk.Tier
	Warnings    []string
	Features    features.Vector
	Report      features.Score
	Status      int
	Redirects   []probe.Hop
	Errors      []string
	CheckedAt   time.Time
	Duration    time.Duration
	// Truth is the ground-truth label when the URL came from a labelled feed.
	Truth *bool
}

func (v *Verdict) Phishing() bool {
	return v.Label == Phishing
}

// Extractor produces the feature vector for a URL.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) *features.Extraction
}

type Options struct {
	// Timeout bounds one full check. Zero means no outer bound.
	Timeout time.Duration
	// InvertPolarity flips model inputs for models trained with -1 as suspicious.
	InvertPolarity bool
	Recorder       graph.Recorder
	Metrics        *metrics.Metrics
}

type Detector struct {
	extractor  Extractor
	classifier classifier.Classifier
	opts       Options
	log        logger.Logger
	now        func() time.Time
}

func New(ex Extractor, c classifier.Classifier, opts Options, log logger.Logger) *Detector {
	if opts.Recorder == nil {
		opts.Recorder = graph.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Detector{extractor: ex, classifier: c, opts: opts, log: log, now: time.Now}
}

// Check judges rawURL. Only an empty URL or a classifier failure is an
// error; network trouble degrades individual features instead.
func (d *Detector) Check(ctx context.Context, rawURL string) (*Verdict, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	ext := d.extractor.Extract(ctx, rawURL)

	p, err := d.predict(ctx, ext)
	if err != nil {
		d.opts.Metrics.ClassifierFailed()
		return nil, fmt.Errorf("classify %s: %w", ext.URL, err)
	}

	assessment := risk.Assess(ext.Vector, ext.Report, p)
	v := &Verdict{
		ID:          uuid.NewString(),
		URL:         ext.URL,
		Label:       Legitimate,
		Probability: p,
		Confidence:  math.Max(p, 1-p),
		Tier:        assessment.Tier,
		Warnings:    assessment.Warnings,
		Features:    ext.Vector,
		Report:      ext.Report,
		Status:      ext.Status,
		Redirects:   ext.Redirects,
		Errors:      ext.Errors,
		CheckedAt:   d.now().UTC(),
		Duration:    time.Since(start),
	}
	if p > Threshold {
		v.Label = Phishing
	}

	d.opts.Metrics.ObserveCheck(string(v.Label), v.Duration, v.Errors)
	d.record(ctx, v)

	d.log.Info("url checked",
		logger.String("url", v.URL),
		logger.String("result", string(v.Label)),
		logger.Float64("probability", v.Probability),
		logger.String("risk_level", string(v.Tier)),
		logger.Duration("took", v.Duration),
	)
	return v, nil
}

func (d *Detector) predict(ctx context.Context, ext *features.Extraction) (float64, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), predictTimeout)
	defer cancel()
	return d.classifier.Predict(ctx, classifier.Align(ext.Vector, ext.Report, d.opts.InvertPolarity))
}

// record writes to the graph sink. Failures are logged only.
func (d *Detector) record(ctx context.Context, v *Verdict) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	hops := make([]string, len(v.Redirects))
	for i, h := range v.Redirects {
		hops[i] = h.URL
	}
	err := d.opts.Recorder.Record(ctx, graph.Observation{
		ID:          v.ID,
		URL:         v.URL,
		Label:       string(v.Label),
		Probability: v.Probability,
		Tier:        string(v.Tier),
		CheckedAt:   v.CheckedAt,
		Redirects:   hops,
	})
	if err != nil {
		d.opts.Metrics.GraphFailed()
		d.log.Warn("graph record failed", logger.String("url", v.URL), logger.Error(err))
	}
}
