// Package cohesion computes Chidamber-Kemerer object-oriented metrics
// (WMC, DIT, NOC, CBO, Advanced CBO, RFC, LCOM) for Java classes.
//
// A single source-order walk of the syntax tree gathers per-class facts into
// a Registry (Traverse). The metrics are then derived from the finished
// registry (Compute, ComputeAll). Names resolve syntactically: a reference
// counts as a field access when its last segment matches a field declared
// earlier in the class, and coupling is taken from parameter and
// instantiation types. No type binding is attempted.
package cohesion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/panbanda/oometrics/pkg/analyzer"
	"github.com/panbanda/oometrics/pkg/ast"
	"github.com/panbanda/oometrics/pkg/ast/treesitter"
	"github.com/panbanda/oometrics/pkg/parser"
	"go.uber.org/zap"
)

// Ensure Analyzer implements analyzer.SourceFileAnalyzer.
var _ analyzer.SourceFileAnalyzer[*Analysis] = (*Analyzer)(nil)

// DefaultLowCohesionThreshold is the LCOM above which a class counts as
// poorly cohesive in the summary.
const DefaultLowCohesionThreshold = 1

// Analyzer computes CK metrics for Java files.
type Analyzer struct {
	skipTestFile  bool
	maxFileSize   int64
	scope         Scope
	workers       int
	excluded      []string
	rfc           RFCFormula
	lcom          LCOMFormula
	lcomThreshold int
	logger        *zap.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithIncludeTestFiles includes test files in analysis.
// By default, test files are skipped.
func WithIncludeTestFiles() Option {
	return func(a *Analyzer) {
		a.skipTestFile = false
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// WithScope selects per-file or project-wide registries.
func WithScope(scope Scope) Option {
	return func(a *Analyzer) {
		if scope != "" {
			a.scope = scope
		}
	}
}

// WithWorkers sets the number of parsing workers (0 = 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithCouplingExclusions adds type names that never count as coupling.
func WithCouplingExclusions(names ...string) Option {
	return func(a *Analyzer) {
		a.excluded = append(a.excluded, names...)
	}
}

// WithFormulas selects the RFC and LCOM formulas. Empty values keep the
// canonical ones.
func WithFormulas(rfc RFCFormula, lcom LCOMFormula) Option {
	return func(a *Analyzer) {
		if rfc != "" {
			a.rfc = rfc
		}
		if lcom != "" {
			a.lcom = lcom
		}
	}
}

// WithLowCohesionThreshold sets the LCOM above which a class is reported
// as low cohesion.
func WithLowCohesionThreshold(n int) Option {
	return func(a *Analyzer) {
		a.lcomThreshold = n
	}
}

// WithLogger sets the logger for traces and warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates a new CK metrics analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		skipTestFile:  true,
		scope:         ScopeFile,
		rfc:           RFCCanonical,
		lcom:          LCOMCanonical,
		lcomThreshold: DefaultLowCohesionThreshold,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// isTestFile checks if a Java file is a test file.
func isTestFile(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(slashed)
	return strings.HasSuffix(base, "Test.java") ||
		strings.HasSuffix(base, "Tests.java") ||
		strings.HasSuffix(base, "IT.java") ||
		strings.HasPrefix(slashed, "test/") ||
		strings.HasPrefix(slashed, "tests/") ||
		strings.Contains(slashed, "/test/") ||
		strings.Contains(slashed, "/tests/")
}

// ContentSource is an alias for analyzer.ContentSource.
type ContentSource = analyzer.ContentSource

// errTooLarge marks files skipped by the size limit.
var errTooLarge = errors.New("file exceeds size limit")

// Analyze computes CK metrics for all Java classes in files.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src ContentSource) (*Analysis, error) {
	var selected []string
	for _, path := range files {
		if parser.DetectLanguage(path) != parser.LangJava {
			continue
		}
		if a.skipTestFile && isTestFile(path) {
			continue
		}
		selected = append(selected, path)
	}

	if tracker := analyzer.TrackerFromContext(ctx); tracker != nil {
		tracker.Add(len(selected))
	}

	parsed, errs := analyzer.MapSources(ctx, selected, src, a.workers,
		func(psr *parser.Parser, path string, content []byte) (*ast.File, error) {
			if a.maxFileSize > 0 && int64(len(content)) > a.maxFileSize {
				return nil, errTooLarge
			}
			return treesitter.NewWithParser(psr).ParseSource(content, path)
		})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analysis := a.newAnalysis()
	for _, e := range errs.Errors {
		if errors.Is(e.Err, errTooLarge) {
			a.logger.Debug("skipping large file", zap.String("path", e.Path))
			continue
		}
		a.logger.Warn("failed to analyze file", zap.String("path", e.Path), zap.Error(e.Err))
		analysis.Diagnostics = append(analysis.Diagnostics, e.Error())
		analysis.Summary.FailedFiles++
	}

	a.collect(parsed, analysis)
	return analysis, nil
}

// AnalyzeSource computes CK metrics for a single in-memory Java file.
func (a *Analyzer) AnalyzeSource(path string, content []byte) (*Analysis, error) {
	provider := treesitter.New()
	defer provider.Close()

	file, err := provider.ParseSource(content, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	analysis := a.newAnalysis()
	a.collect([]*ast.File{file}, analysis)
	return analysis, nil
}

func (a *Analyzer) newAnalysis() *Analysis {
	return &Analysis{
		GeneratedAt: time.Now().UTC(),
		Scope:       a.scope,
		RFCFormula:  a.rfc,
		LCOMFormula: a.lcom,
		Classes:     make([]ClassMetrics, 0),
	}
}

// collect builds registries from parsed files according to the scope and
// appends their metrics to analysis.
func (a *Analyzer) collect(files []*ast.File, analysis *Analysis) {
	visitorOpts := []VisitorOption{
		WithVisitorLogger(a.logger),
		WithExcludedTypes(a.excluded...),
	}

	if a.scope == ScopeProject {
		collector := NewCollector(visitorOpts...)
		for _, f := range files {
			collector.SetSourcePath(f.Path)
			collector.Visit(f.Root)
		}
		a.appendRegistry(collector.Registry(), analysis)
	} else {
		for _, f := range files {
			reg := Traverse(f.Root, append(visitorOpts, WithSourcePath(f.Path))...)
			a.appendRegistry(reg, analysis)
		}
	}

	// Sort by LCOM (least cohesive first)
	analysis.Sort(SortByLCOM)
	analysis.CalculateSummary(a.lcomThreshold)
}

func (a *Analyzer) appendRegistry(reg Registry, analysis *Analysis) {
	metrics := ComputeAll(reg, WithRFCFormula(a.rfc), WithLCOMFormula(a.lcom))

	for _, name := range reg.Names() {
		facts, m := reg[name], metrics[name]
		analysis.Classes = append(analysis.Classes, ClassMetrics{
			Path:           facts.Path,
			ClassName:      name,
			Line:           facts.Line,
			Parent:         facts.Parent,
			WMC:            m.WMC,
			DIT:            m.DIT,
			DITCycle:       m.DITCycle,
			NOC:            m.NOC,
			CBO:            m.CBO,
			AdvancedCBO:    m.AdvancedCBO,
			RFC:            m.RFC,
			LCOM:           m.LCOM,
			NOM:            m.NOM,
			NOF:            m.NOF,
			Methods:        facts.MethodNames(),
			Fields:         facts.FieldNames(),
			CoupledClasses: m.CoupledClasses,
			Children:       facts.Children(),
		})
	}

	for _, cycle := range InheritanceCycles(reg) {
		path := reg[cycle[0]].Path
		a.logger.Warn("inheritance cycle", zap.Strings("classes", cycle), zap.String("path", path))
		analysis.Diagnostics = append(analysis.Diagnostics,
			fmt.Sprintf("%s: inheritance cycle among %s", path, strings.Join(cycle, ", ")))
		analysis.Summary.InheritanceCycles++
	}
}

// Close releases resources. Parsers are owned by the worker pool, so there
// is nothing to release.
func (a *Analyzer) Close() {}
