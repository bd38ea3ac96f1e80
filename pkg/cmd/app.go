package cmd

import (
	"context"
	"time"

	"phishjudge/pkg/classifier"
	"phishjudge/pkg/config"
	"phishjudge/pkg/detector"
	"phishjudge/pkg/features"
	"phishjudge/pkg/graph"
	"phishjudge/pkg/logger"
	"phishjudge/pkg/metrics"
	"phishjudge/pkg/probe"
	"phishjudge/pkg/store"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg       *config.Config
	log       logger.Logger
	blacklist *store.Blacklist
	ranks     *store.RankTable
	metrics   *metrics.Metrics
	recorder  graph.Recorder
	detector  *detector.Detector
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, cfg)
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, err
	}

	prober := probe.New(probe.Config{
		HTTPTimeout:        cfg.Probe.HTTPTimeout,
		InsecureSkipVerify: cfg.Probe.InsecureSkipVerify,
		UserAgent:          cfg.Probe.UserAgent,
		MaxRedirects:       cfg.Probe.MaxRedirects,
		MaxBodyBytes:       cfg.Probe.MaxBodyBytes,
		DNSServers:         cfg.Probe.DNSServers,
		DNSTimeout:         cfg.Probe.DNSTimeout,
		WhoisTimeout:       cfg.Probe.WhoisTimeout,
	}, log)

	ranks := store.NewRankTable(cfg.Data.RankFile, log)
	blacklist := store.NewBlacklist(cfg.Data.BlacklistFile, log)
	extractor := features.NewExtractor(prober, ranks, blacklist, features.Options{
		Parallel: cfg.Extract.Parallel,
	}, log)

	clf, err := classifier.Load(classifier.Config{
		Path:      cfg.Model.Path,
		RemoteURL: cfg.Model.RemoteURL,
		Timeout:   cfg.Model.Timeout,
	}, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	var recorder graph.Recorder = graph.Nop{}
	if cfg.Graph.URI != "" {
		rec, err := graph.NewNeo4j(ctx, graph.Config{
			URI:      cfg.Graph.URI,
			Username: cfg.Graph.Username,
			Password: cfg.Graph.Password,
			Database: cfg.Graph.Database,
		}, log)
		if err != nil {
			log.Warn("graph recording disabled", logger.String("uri", cfg.Graph.URI), logger.Error(err))
		} else {
			recorder = rec
		}
	}

	m := metrics.New()
	det := detector.New(extractor, clf, detector.Options{
		Timeout:        cfg.Server.CheckTimeout,
		InvertPolarity: cfg.Model.InvertPolarity,
		Recorder:       recorder,
		Metrics:        m,
	}, log)

	return &app{
		cfg:       cfg,
		log:       log,
		blacklist: blacklist,
		ranks:     ranks,
		metrics:   m,
		recorder:  recorder,
		detector:  det,
	}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.recorder.Close(ctx); err != nil {
		a.log.Warn("close graph recorder", logger.Error(err))
	}
	_ = a.log.Sync()
}
