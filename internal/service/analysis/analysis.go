// Package analysis orchestrates CK metrics runs: option resolution,
// caching and the cohesion analyzer.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/panbanda/oometrics/internal/cache"
	"github.com/panbanda/oometrics/pkg/analyzer"
	"github.com/panbanda/oometrics/pkg/analyzer/cohesion"
	"github.com/panbanda/oometrics/pkg/config"
)

// Service orchestrates code analysis operations.
type Service struct {
	config *config.Config
	cache  *cache.Cache
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithCache enables result caching.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger passed down to the analyzer.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CKOptions overrides the configured analysis settings for one run.
// Zero values fall back to the configuration.
type CKOptions struct {
	Scope        string
	RFCFormula   string
	LCOMFormula  string
	IncludeTests bool
	MaxFileSize  int64
	Workers      int
}

type resolved struct {
	scope        cohesion.Scope
	rfc          cohesion.RFCFormula
	lcom         cohesion.LCOMFormula
	includeTests bool
	maxFileSize  int64
	workers      int
	excluded     []string
	lcomLimit    int
}

func (s *Service) resolve(opts CKOptions) (resolved, error) {
	cfg := s.config.Analysis
	r := resolved{
		includeTests: opts.IncludeTests || cfg.IncludeTests,
		maxFileSize:  cmpOr(opts.MaxFileSize, cfg.MaxFileSize),
		workers:      cmpOr(opts.Workers, cfg.Workers),
		excluded:     cfg.ExcludedTypes,
		lcomLimit:    s.config.Thresholds.LCOM,
	}

	var err error
	if r.scope, err = cohesion.ParseScope(cmpOr(opts.Scope, cfg.Scope)); err != nil {
		return r, err
	}
	if r.rfc, err = cohesion.ParseRFCFormula(cmpOr(opts.RFCFormula, cfg.RFCFormula)); err != nil {
		return r, err
	}
	if r.lcom, err = cohesion.ParseLCOMFormula(cmpOr(opts.LCOMFormula, cfg.LCOMFormula)); err != nil {
		return r, err
	}
	return r, nil
}

func cmpOr[T comparable](v, fallback T) T {
	var zero T
	if v != zero {
		return v
	}
	return fallback
}

func (r resolved) analyzer(logger *zap.Logger) *cohesion.Analyzer {
	opts := []cohesion.Option{
		cohesion.WithScope(r.scope),
		cohesion.WithFormulas(r.rfc, r.lcom),
		cohesion.WithMaxFileSize(r.maxFileSize),
		cohesion.WithWorkers(r.workers),
		cohesion.WithCouplingExclusions(r.excluded...),
		cohesion.WithLowCohesionThreshold(r.lcomLimit),
		cohesion.WithLogger(logger),
	}
	if r.includeTests {
		opts = append(opts, cohesion.WithIncludeTestFiles())
	}
	return cohesion.New(opts...)
}

// fingerprint identifies a run by its settings and file list.
func (r resolved) fingerprint(files []string) string {
	excluded := slices.Clone(r.excluded)
	slices.Sort(excluded)
	parts := []string{
		"ck",
		string(r.scope),
		string(r.rfc),
		string(r.lcom),
		strconv.FormatBool(r.includeTests),
		strconv.FormatInt(r.maxFileSize, 10),
		strconv.Itoa(r.lcomLimit),
		strings.Join(excluded, ","),
	}
	sorted := slices.Clone(files)
	slices.Sort(sorted)
	return cache.Fingerprint(append(parts, sorted...)...)
}

// AnalyzeCK computes CK metrics for files read through src. A progress
// tracker in ctx is ticked per file. Cached results are reused when the
// settings, file list and file contents all match.
func (s *Service) AnalyzeCK(ctx context.Context, files []string, src analyzer.ContentSource, opts CKOptions) (*cohesion.Analysis, error) {
	r, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}

	key, hash := s.cacheKey(r, files, src)
	if key != "" {
		if data, ok := s.cache.GetWithHash(key, hash); ok {
			var cached cohesion.Analysis
			if err := json.Unmarshal(data, &cached); err == nil {
				s.logger.Debug("using cached analysis", zap.Int("files", len(files)))
				if tracker := analyzer.TrackerFromContext(ctx); tracker != nil {
					tracker.Add(len(files))
					for _, f := range files {
						tracker.Tick(f)
					}
				}
				return &cached, nil
			}
		}
	}

	a := r.analyzer(s.logger)
	defer a.Close()

	result, err := a.Analyze(ctx, files, src)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	if key != "" {
		data, err := json.Marshal(result)
		if err == nil {
			err = s.cache.SetWithHash(key, hash, data)
		}
		if err != nil {
			s.logger.Warn("failed to write cache", zap.Error(err))
		}
	}
	return result, nil
}

// cacheKey returns an empty key when caching is off or a file cannot be read.
func (s *Service) cacheKey(r resolved, files []string, src analyzer.ContentSource) (string, string) {
	if s.cache == nil || !s.cache.Enabled() {
		return "", ""
	}
	digest := cache.NewDigest()
	for _, f := range files {
		content, err := src.Read(f)
		if err != nil {
			return "", ""
		}
		digest.Add(f, content)
	}
	return r.fingerprint(files), digest.Sum()
}

// AnalyzeSource computes CK metrics for a single in-memory Java source.
func (s *Service) AnalyzeSource(path string, content []byte, opts CKOptions) (*cohesion.Analysis, error) {
	r, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = "Input.java"
	}
	a := r.analyzer(s.logger)
	defer a.Close()
	return a.AnalyzeSource(path, content)
}
