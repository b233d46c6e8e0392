package cohesion

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// RFCFormula selects how Response For Class is counted.
type RFCFormula string

const (
	// RFCCanonical counts |methods ∪ invoked|.
	RFCCanonical RFCFormula = "canonical"
	// RFCAdditive counts |methods| + |invoked| without removing overlap.
	RFCAdditive RFCFormula = "additive"
)

// LCOMFormula selects how Lack of Cohesion of Methods is counted.
type LCOMFormula string

const (
	// LCOMCanonical is max(0, P-Q) over method pairs.
	LCOMCanonical LCOMFormula = "canonical"
	// LCOMPairs is P, the number of pairs sharing no field.
	LCOMPairs LCOMFormula = "pairs"
)

// ParseRFCFormula validates a formula name. Empty selects the canonical one.
func ParseRFCFormula(s string) (RFCFormula, error) {
	switch RFCFormula(s) {
	case "", RFCCanonical:
		return RFCCanonical, nil
	case RFCAdditive:
		return RFCAdditive, nil
	}
	return "", fmt.Errorf("unknown RFC formula %q (want canonical or additive)", s)
}

// ParseLCOMFormula validates a formula name. Empty selects the canonical one.
func ParseLCOMFormula(s string) (LCOMFormula, error) {
	switch LCOMFormula(s) {
	case "", LCOMCanonical:
		return LCOMCanonical, nil
	case LCOMPairs:
		return LCOMPairs, nil
	}
	return "", fmt.Errorf("unknown LCOM formula %q (want canonical or pairs)", s)
}

// Metrics holds the CK metrics of one class.
type Metrics struct {
	WMC         int
	DIT         int
	NOC         int
	CBO         int
	AdvancedCBO int
	RFC         int
	LCOM        int

	NOF int
	NOM int

	// DITCycle is set when the extends chain loops back on itself.
	// DIT then holds the depth reached before the repeat.
	DITCycle bool

	CoupledClasses []string
}

// EngineOption configures metric computation.
type EngineOption func(*engine)

// WithRFCFormula selects the RFC formula.
func WithRFCFormula(f RFCFormula) EngineOption {
	return func(e *engine) {
		if f != "" {
			e.rfc = f
		}
	}
}

// WithLCOMFormula selects the LCOM formula.
func WithLCOMFormula(f LCOMFormula) EngineOption {
	return func(e *engine) {
		if f != "" {
			e.lcom = f
		}
	}
}

type engine struct {
	rfc  RFCFormula
	lcom LCOMFormula
}

func newEngine(opts []EngineOption) *engine {
	e := &engine{rfc: RFCCanonical, lcom: LCOMCanonical}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeAll computes metrics for every registered class. The registry is
// not modified.
func ComputeAll(reg Registry, opts ...EngineOption) map[string]Metrics {
	e := newEngine(opts)
	out := make(map[string]Metrics, len(reg))
	for name := range reg {
		out[name] = e.compute(reg, name)
	}
	return out
}

// Compute computes metrics for a single class. It reports false when the
// class is not registered.
func Compute(reg Registry, className string, opts ...EngineOption) (Metrics, bool) {
	if _, ok := reg[className]; !ok {
		return Metrics{}, false
	}
	return newEngine(opts).compute(reg, className), true
}

func (e *engine) compute(reg Registry, name string) Metrics {
	f := reg[name]
	dit, cycle := depth(reg, name)
	return Metrics{
		WMC:            len(f.methods),
		DIT:            dit,
		NOC:            len(f.children),
		CBO:            len(f.coupled),
		AdvancedCBO:    advancedCBO(reg, f),
		RFC:            e.responseFor(f),
		LCOM:           e.lackOfCohesion(f),
		NOF:            len(f.fields),
		NOM:            len(f.methods),
		DITCycle:       cycle,
		CoupledClasses: f.CoupledClassNames(),
	}
}

// depth counts resolvable ancestor links. The walk stops at the first parent
// that is not registered, or when a class repeats.
func depth(reg Registry, name string) (int, bool) {
	visited := map[string]bool{name: true}
	dit := 0
	for cur := reg[name]; cur.Parent != ""; {
		parent, ok := reg[cur.Parent]
		if !ok {
			return dit, false
		}
		if visited[parent.Name] {
			return dit, true
		}
		visited[parent.Name] = true
		dit++
		cur = parent
	}
	return dit, false
}

// advancedCBO is |Out| + |In| - |Out ∩ In| where In holds every other
// registered class coupling to f.
func advancedCBO(reg Registry, f *ClassFacts) int {
	in, both := 0, 0
	for name, other := range reg {
		if name == f.Name || !other.CouplesTo(f.Name) {
			continue
		}
		in++
		if f.CouplesTo(name) {
			both++
		}
	}
	return len(f.coupled) + in - both
}

func (e *engine) responseFor(f *ClassFacts) int {
	if e.rfc == RFCAdditive {
		return len(f.methods) + len(f.invoked)
	}
	rfc := len(f.methods)
	for name := range f.invoked {
		if !f.methods.has(name) {
			rfc++
		}
	}
	return rfc
}

// lackOfCohesion compares every unordered pair of declared methods by the
// fields they access. Field sets are held as bitmaps over field ids.
func (e *engine) lackOfCohesion(f *ClassFacts) int {
	methods := f.MethodNames()
	if len(methods) < 2 {
		return 0
	}

	ids := make(map[string]uint32)
	bitmaps := make([]*roaring.Bitmap, len(methods))
	for i, m := range methods {
		bm := roaring.New()
		for field := range f.accessedFields[m] {
			id, ok := ids[field]
			if !ok {
				id = uint32(len(ids))
				ids[field] = id
			}
			bm.Add(id)
		}
		bitmaps[i] = bm
	}

	disjoint, sharing := 0, 0
	for i := range bitmaps {
		for j := i + 1; j < len(bitmaps); j++ {
			if bitmaps[i].Intersects(bitmaps[j]) {
				sharing++
			} else {
				disjoint++
			}
		}
	}

	if e.lcom == LCOMPairs {
		return disjoint
	}
	return max(0, disjoint-sharing)
}
