package cohesion

import (
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// InheritanceCycles returns each group of registered classes whose extends
// links form a loop. Every cycle is sorted by name and the list is sorted by
// its first member.
func InheritanceCycles(reg Registry) [][]string {
	names := reg.Names()
	ids := make(map[string]int64, len(names))
	g := simple.NewDirectedGraph()
	for i, name := range names {
		ids[name] = int64(i)
		g.AddNode(simple.Node(i))
	}

	var cycles [][]string
	for _, name := range names {
		parent := reg[name].Parent
		if _, ok := ids[parent]; !ok {
			continue
		}
		// Simple graphs reject self edges.
		if parent == name {
			cycles = append(cycles, []string{name})
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(ids[name]), simple.Node(ids[parent])))
	}

	for _, component := range topo.TarjanSCC(g) {
		if len(component) < 2 {
			continue
		}
		cycle := make([]string, 0, len(component))
		for _, n := range component {
			cycle = append(cycle, names[n.ID()])
		}
		slices.Sort(cycle)
		cycles = append(cycles, cycle)
	}

	slices.SortFunc(cycles, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})
	return cycles
}
