package cohesion

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Scope controls how far class names resolve.
type Scope string

const (
	// ScopeFile builds one registry per file.
	ScopeFile Scope = "file"
	// ScopeProject folds every file into a single registry, so inheritance
	// and inbound coupling resolve across files.
	ScopeProject Scope = "project"
)

// ParseScope validates a scope name. Empty selects ScopeFile.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeFile:
		return ScopeFile, nil
	case ScopeProject:
		return ScopeProject, nil
	}
	return "", fmt.Errorf("unknown scope %q (want file or project)", s)
}

// ClassMetrics represents CK metrics for a single class.
type ClassMetrics struct {
	Path      string `json:"path" yaml:"path" toon:"path"`
	ClassName string `json:"class_name" yaml:"class_name" toon:"class_name"`
	Line      int    `json:"line,omitempty" yaml:"line,omitempty" toon:"line,omitempty"`
	Parent    string `json:"parent,omitempty" yaml:"parent,omitempty" toon:"parent,omitempty"`

	// Weighted Methods per Class, one unit per declared method
	WMC int `json:"wmc" yaml:"wmc" toon:"wmc"`

	// Depth of Inheritance Tree, counting registered ancestors only
	DIT int `json:"dit" yaml:"dit" toon:"dit"`

	// Set when the extends chain is cyclic
	DITCycle bool `json:"dit_cycle,omitempty" yaml:"dit_cycle,omitempty" toon:"dit_cycle,omitempty"`

	// Number of Children (direct subclasses)
	NOC int `json:"noc" yaml:"noc" toon:"noc"`

	// Coupling Between Objects, outbound only
	CBO int `json:"cbo" yaml:"cbo" toon:"cbo"`

	// Outbound plus inbound coupling, shared relations counted once
	AdvancedCBO int `json:"advanced_cbo" yaml:"advanced_cbo" toon:"advanced_cbo"`

	// Response For Class
	RFC int `json:"rfc" yaml:"rfc" toon:"rfc"`

	// Lack of Cohesion in Methods
	LCOM int `json:"lcom" yaml:"lcom" toon:"lcom"`

	NOM int `json:"nom" yaml:"nom" toon:"nom"`
	NOF int `json:"nof" yaml:"nof" toon:"nof"`

	Methods        []string `json:"methods,omitempty" yaml:"methods,omitempty" toon:"methods,omitempty"`
	Fields         []string `json:"fields,omitempty" yaml:"fields,omitempty" toon:"fields,omitempty"`
	CoupledClasses []string `json:"coupled_classes,omitempty" yaml:"coupled_classes,omitempty" toon:"coupled_classes,omitempty"`
	Children       []string `json:"children,omitempty" yaml:"children,omitempty" toon:"children,omitempty"`
}

// Summary provides aggregate CK metrics.
type Summary struct {
	TotalClasses int     `json:"total_classes" yaml:"total_classes" toon:"total_classes"`
	TotalFiles   int     `json:"total_files" yaml:"total_files" toon:"total_files"`
	AvgWMC       float64 `json:"avg_wmc" yaml:"avg_wmc" toon:"avg_wmc"`
	AvgDIT       float64 `json:"avg_dit" yaml:"avg_dit" toon:"avg_dit"`
	AvgCBO       float64 `json:"avg_cbo" yaml:"avg_cbo" toon:"avg_cbo"`
	AvgACBO      float64 `json:"avg_advanced_cbo" yaml:"avg_advanced_cbo" toon:"avg_advanced_cbo"`
	AvgRFC       float64 `json:"avg_rfc" yaml:"avg_rfc" toon:"avg_rfc"`
	AvgLCOM      float64 `json:"avg_lcom" yaml:"avg_lcom" toon:"avg_lcom"`
	MaxWMC       int     `json:"max_wmc" yaml:"max_wmc" toon:"max_wmc"`
	MaxDIT       int     `json:"max_dit" yaml:"max_dit" toon:"max_dit"`
	MaxNOC       int     `json:"max_noc" yaml:"max_noc" toon:"max_noc"`
	MaxCBO       int     `json:"max_cbo" yaml:"max_cbo" toon:"max_cbo"`
	MaxACBO      int     `json:"max_advanced_cbo" yaml:"max_advanced_cbo" toon:"max_advanced_cbo"`
	MaxRFC       int     `json:"max_rfc" yaml:"max_rfc" toon:"max_rfc"`
	MaxLCOM      int     `json:"max_lcom" yaml:"max_lcom" toon:"max_lcom"`

	// Classes whose LCOM exceeds the low cohesion threshold
	LowCohesionCount int `json:"low_cohesion_count" yaml:"low_cohesion_count" toon:"low_cohesion_count"`

	InheritanceCycles int `json:"inheritance_cycles" yaml:"inheritance_cycles" toon:"inheritance_cycles"`
	FailedFiles       int `json:"failed_files" yaml:"failed_files" toon:"failed_files"`
}

// Analysis represents the full CK metrics analysis result.
type Analysis struct {
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at" toon:"generated_at"`
	Scope       Scope          `json:"scope" yaml:"scope" toon:"scope"`
	RFCFormula  RFCFormula     `json:"rfc_formula" yaml:"rfc_formula" toon:"rfc_formula"`
	LCOMFormula LCOMFormula    `json:"lcom_formula" yaml:"lcom_formula" toon:"lcom_formula"`
	Classes     []ClassMetrics `json:"classes" yaml:"classes" toon:"classes"`
	Summary     Summary        `json:"summary" yaml:"summary" toon:"summary"`
	Diagnostics []string       `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" toon:"diagnostics,omitempty"`
}

// CalculateSummary computes summary statistics. Classes with LCOM above
// lcomThreshold count as low cohesion.
func (c *Analysis) CalculateSummary(lcomThreshold int) {
	cycles, failed := c.Summary.InheritanceCycles, c.Summary.FailedFiles
	c.Summary = Summary{InheritanceCycles: cycles, FailedFiles: failed}
	if len(c.Classes) == 0 {
		return
	}

	files := make(map[string]bool)
	n := len(c.Classes)
	wmc := make([]float64, n)
	dit := make([]float64, n)
	cbo := make([]float64, n)
	acbo := make([]float64, n)
	rfc := make([]float64, n)
	lcom := make([]float64, n)

	for i, cls := range c.Classes {
		files[cls.Path] = true
		wmc[i] = float64(cls.WMC)
		dit[i] = float64(cls.DIT)
		cbo[i] = float64(cls.CBO)
		acbo[i] = float64(cls.AdvancedCBO)
		rfc[i] = float64(cls.RFC)
		lcom[i] = float64(cls.LCOM)

		c.Summary.MaxWMC = max(c.Summary.MaxWMC, cls.WMC)
		c.Summary.MaxDIT = max(c.Summary.MaxDIT, cls.DIT)
		c.Summary.MaxNOC = max(c.Summary.MaxNOC, cls.NOC)
		c.Summary.MaxCBO = max(c.Summary.MaxCBO, cls.CBO)
		c.Summary.MaxACBO = max(c.Summary.MaxACBO, cls.AdvancedCBO)
		c.Summary.MaxRFC = max(c.Summary.MaxRFC, cls.RFC)
		c.Summary.MaxLCOM = max(c.Summary.MaxLCOM, cls.LCOM)
		if cls.LCOM > lcomThreshold {
			c.Summary.LowCohesionCount++
		}
	}

	c.Summary.TotalClasses = n
	c.Summary.TotalFiles = len(files)
	c.Summary.AvgWMC = stat.Mean(wmc, nil)
	c.Summary.AvgDIT = stat.Mean(dit, nil)
	c.Summary.AvgCBO = stat.Mean(cbo, nil)
	c.Summary.AvgACBO = stat.Mean(acbo, nil)
	c.Summary.AvgRFC = stat.Mean(rfc, nil)
	c.Summary.AvgLCOM = stat.Mean(lcom, nil)
}

// SortKey names the metric classes are ordered by.
type SortKey string

const (
	SortByLCOM SortKey = "lcom"
	SortByWMC  SortKey = "wmc"
	SortByCBO  SortKey = "cbo"
	SortByACBO SortKey = "acbo"
	SortByRFC  SortKey = "rfc"
	SortByDIT  SortKey = "dit"
	SortByNOC  SortKey = "noc"
	SortByName SortKey = "name"
)

// SortKeys lists the accepted sort keys.
var SortKeys = []SortKey{SortByLCOM, SortByWMC, SortByCBO, SortByACBO, SortByRFC, SortByDIT, SortByNOC, SortByName}

// ParseSortKey validates a sort key. Empty selects LCOM.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortByLCOM, nil
	}
	key := SortKey(strings.ToLower(s))
	if slices.Contains(SortKeys, key) {
		return key, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

func (k SortKey) value(m *ClassMetrics) int {
	switch k {
	case SortByWMC:
		return m.WMC
	case SortByCBO:
		return m.CBO
	case SortByACBO:
		return m.AdvancedCBO
	case SortByRFC:
		return m.RFC
	case SortByDIT:
		return m.DIT
	case SortByNOC:
		return m.NOC
	default:
		return m.LCOM
	}
}

// Sort orders classes by key, highest first. Name sorts ascending. Ties
// fall back to class name, then path.
func (c *Analysis) Sort(key SortKey) {
	slices.SortStableFunc(c.Classes, func(a, b ClassMetrics) int {
		if key != SortByName {
			if d := cmp.Compare(key.value(&b), key.value(&a)); d != 0 {
				return d
			}
		}
		if d := cmp.Compare(a.ClassName, b.ClassName); d != 0 {
			return d
		}
		return cmp.Compare(a.Path, b.Path)
	})
}

// Top keeps the first n classes. n <= 0 keeps all.
func (c *Analysis) Top(n int) {
	if n > 0 && len(c.Classes) > n {
		c.Classes = c.Classes[:n]
	}
}
