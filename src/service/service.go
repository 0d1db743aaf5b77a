// Package service runs an earthquake search and, when asked, publishes the results.
// The CLI, the HTTP wrapper and the MCP server all go through it.
package service

import (
	"context"
	"fmt"

	"sasquatch-backpack/src/cache"
	"sasquatch-backpack/src/config"
	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/dispatch"
	"sasquatch-backpack/src/logger"
	"sasquatch-backpack/src/metrics"
	"sasquatch-backpack/src/usgs"
)

// Result holds the events found and, when publishing was requested, the publish outcome.
type Result struct {
	Earthquakes []usgs.Earthquake  `json:"earthquakes"`
	Outcome     *contracts.Outcome `json:"outcome,omitempty"`
	// CacheAddress is the membership cache that was consulted.
	CacheAddress string `json:"-"`
}

// Published reports whether a publish was attempted.
func (r Result) Published() bool {
	return r.Outcome != nil
}

// Runner is implemented by *Service.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// CacheOpener connects to a membership cache.
type CacheOpener func(ctx context.Context, address string) (cache.Cache, error)

// Service wires the USGS client to a dispatcher per request.
type Service struct {
	cfg         *config.Config
	searcher    usgs.Searcher
	logger      logger.Logger
	metrics     *metrics.Recorder
	openCache   CacheOpener
	provisioner dispatch.Provisioner
	extra       []dispatch.Option
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithCacheOpener replaces cache.Open.
func WithCacheOpener(open CacheOpener) Option {
	return func(s *Service) { s.openCache = open }
}

// WithProvisioner replaces the REST proxy topic provisioner.
func WithProvisioner(p dispatch.Provisioner) Option {
	return func(s *Service) { s.provisioner = p }
}

// WithDispatchOptions appends options to every dispatcher the service builds.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(s *Service) { s.extra = append(s.extra, opts...) }
}

// New creates a service. A nil searcher selects the USGS client at cfg.USGSAPIURL.
func New(cfg *config.Config, searcher usgs.Searcher, opts ...Option) *Service {
	if searcher == nil {
		searcher = usgs.NewClient(cfg.USGSAPIURL)
	}
	s := &Service{
		cfg:       cfg,
		searcher:  searcher,
		logger:    logger.NewSilentLogger(),
		openCache: cache.Open,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run validates req, searches the catalog, and publishes the results if req.Publish is set.
// Errors cover validation, the search itself, and dispatcher setup. Publish failures are in the outcome.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	query := req.Query()
	s.logger.Info("querying USGS: %s back, %d km around (%g, %g), M%d-%d",
		query.Duration, query.Radius, query.Latitude, query.Longitude, query.MinMagnitude, query.MaxMagnitude)

	quakes, err := s.searcher.Search(ctx, query)
	if err != nil {
		return Result{}, usgs.WrapError(err)
	}
	result := Result{Earthquakes: quakes}

	if !req.Publish || len(quakes) == 0 {
		return result, nil
	}

	dcfg := dispatch.NewConfig(s.cfg)
	address := req.CacheURL
	if address == "" {
		address = dcfg.RedisAddress
	}
	result.CacheAddress = address

	c, err := s.openCache(ctx, address)
	if err != nil {
		return result, fmt.Errorf("failed to open membership cache: %w", err)
	}

	method := req.PublishMethod()
	opts := []dispatch.Option{dispatch.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, dispatch.WithMetrics(s.metrics))
	}
	if method == contracts.PublishDirect {
		opts = append(opts, dispatch.WithKafka(s.cfg.Kafka))
	}
	opts = append(opts, s.extra...)

	src := usgs.NewSource(usgs.Results(quakes), query)
	d, err := dispatch.New(src, dcfg, c, s.provisioner, opts...)
	if err != nil {
		c.Close()
		return result, err
	}
	defer d.Close()

	s.logger.Info("publishing %d events to %s via %s", len(quakes), d.Topic(), method)
	outcome := d.Publish(ctx, method, req.Force)
	result.Outcome = &outcome
	return result, nil
}
