package cohesion

import (
	"testing"

	"github.com/panbanda/oometrics/pkg/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAll_EndToEnd(t *testing.T) {
	root := ast.Unit(
		ast.Class("A"),
		ast.Class("B", ast.Extends("A"),
			ast.Field("x"),
			ast.Method("m", ast.Ref("x")),
		),
		ast.Class("C"),
	)

	got := ComputeAll(Traverse(root))
	require.Len(t, got, 3)

	assert.Equal(t, 0, got["A"].DIT)
	assert.Equal(t, 1, got["B"].DIT)
	assert.Equal(t, 0, got["C"].DIT)

	assert.Equal(t, 1, got["A"].NOC)
	assert.Equal(t, 0, got["B"].NOC)
	assert.Equal(t, 0, got["C"].NOC)

	assert.Equal(t, 0, got["B"].LCOM)
	assert.Equal(t, 1, got["B"].WMC)
	assert.Equal(t, 1, got["B"].NOF)
}

func TestComputeAll_EmptyRegistry(t *testing.T) {
	assert.Empty(t, ComputeAll(Registry{}))
	assert.Empty(t, ComputeAll(nil))
}

func TestCompute_Unknown(t *testing.T) {
	_, ok := Compute(Traverse(ast.Unit(ast.Class("A"))), "Missing")
	assert.False(t, ok)
}

func TestCompute_WMC(t *testing.T) {
	reg := Traverse(ast.Unit(ast.Class("A", ast.Method("a"), ast.Method("b"), ast.Method("c"))))

	m, ok := Compute(reg, "A")
	require.True(t, ok)
	assert.Equal(t, 3, m.WMC)
	assert.Equal(t, m.WMC, m.NOM)
}

func TestCompute_DITChain(t *testing.T) {
	root := ast.Unit(
		ast.Class("A", ast.Extends("B")),
		ast.Class("B", ast.Extends("C")),
		ast.Class("C", ast.Extends("D")),
		ast.Class("D", ast.Extends("External")),
	)
	got := ComputeAll(Traverse(root))

	assert.Equal(t, 3, got["A"].DIT)
	assert.Equal(t, 2, got["B"].DIT)
	assert.Equal(t, 1, got["C"].DIT)
	assert.Equal(t, 0, got["D"].DIT)
	for name, m := range got {
		assert.False(t, m.DITCycle, name)
	}
}

func TestCompute_DITUnregisteredParent(t *testing.T) {
	got := ComputeAll(Traverse(ast.Unit(
		ast.Class("AppError", ast.Extends("Exception")),
		ast.Class("NotFound", ast.Extends("AppError")),
	)))

	assert.Equal(t, 0, got["AppError"].DIT)
	assert.False(t, got["AppError"].DITCycle)
	assert.Equal(t, 1, got["NotFound"].DIT)
	assert.False(t, got["NotFound"].DITCycle)
	assert.NotContains(t, got, "Exception")
}

func TestCompute_DITNoExtends(t *testing.T) {
	got := ComputeAll(Traverse(ast.Unit(ast.Class("A"), ast.Class("B", ast.Method("m")))))
	for _, m := range got {
		assert.Equal(t, 0, m.DIT)
	}
}

func TestCompute_DITCycle(t *testing.T) {
	root := ast.Unit(
		ast.Class("A", ast.Extends("B")),
		ast.Class("B", ast.Extends("C")),
		ast.Class("C", ast.Extends("A")),
		ast.Class("D", ast.Extends("A")),
		ast.Class("Self", ast.Extends("Self")),
	)
	got := ComputeAll(Traverse(root))

	assert.True(t, got["A"].DITCycle)
	assert.Equal(t, 2, got["A"].DIT)
	assert.True(t, got["D"].DITCycle)
	assert.Equal(t, 3, got["D"].DIT)
	assert.True(t, got["Self"].DITCycle)
	assert.Equal(t, 0, got["Self"].DIT)
}

func TestCompute_NOC(t *testing.T) {
	root := ast.Unit(
		ast.Class("Base"),
		ast.Class("X", ast.Extends("Base")),
		ast.Class("Y", ast.Extends("Base")),
		ast.Class("Z", ast.Extends("X")),
	)
	reg := Traverse(root)
	got := ComputeAll(reg)

	for name, m := range got {
		want := 0
		for _, other := range reg {
			if other.Parent == name {
				want++
			}
		}
		assert.Equal(t, want, m.NOC, name)
	}
	assert.Equal(t, 2, got["Base"].NOC)
	assert.Equal(t, 1, got["X"].NOC)
}

func TestCompute_AdvancedCBO(t *testing.T) {
	root := ast.Unit(
		ast.Class("A", ast.Method("m", ast.Param("B"), ast.Param("Z"))),
		ast.Class("B", ast.Method("m", ast.Param("A"))),
		ast.Class("C", ast.Method("m", ast.Alloc("A"))),
	)
	got := ComputeAll(Traverse(root))

	// Out(A) = {B, Z}, In(A) = {B, C}, shared = {B}
	assert.Equal(t, 2, got["A"].CBO)
	assert.Equal(t, 3, got["A"].AdvancedCBO)

	// Out(B) = {A}, In(B) = {A}
	assert.Equal(t, 1, got["B"].CBO)
	assert.Equal(t, 1, got["B"].AdvancedCBO)

	// Out(C) = {A}, In(C) = {}
	assert.Equal(t, 1, got["C"].AdvancedCBO)
}

func TestCompute_RFC(t *testing.T) {
	root := ast.Unit(ast.Class("A",
		ast.Method("a", ast.Ref("b"), ast.Ref("logger.info")),
		ast.Method("b", ast.Ref("b")),
	))
	reg := Traverse(root)

	canonical, _ := Compute(reg, "A")
	assert.Equal(t, 3, canonical.RFC)

	additive, _ := Compute(reg, "A", WithRFCFormula(RFCAdditive))
	assert.Equal(t, 4, additive.RFC)
}

func TestCompute_RFCAtLeastWMC(t *testing.T) {
	root := ast.Unit(
		ast.Class("A", ast.Method("a"), ast.Method("b", ast.Ref("a"))),
		ast.Class("B", ast.Method("x", ast.Ref("y"), ast.Ref("z"))),
		ast.Class("C"),
	)
	for _, formula := range []RFCFormula{RFCCanonical, RFCAdditive} {
		for name, m := range ComputeAll(Traverse(root), WithRFCFormula(formula)) {
			assert.GreaterOrEqual(t, m.RFC, m.WMC, "%s/%s", formula, name)
		}
	}
}

func TestCompute_LCOM(t *testing.T) {
	tests := []struct {
		name   string
		class  *ast.Node
		lcom   int
		pairsP int
	}{
		{
			name: "disjoint fields",
			class: ast.Class("K", ast.Field("a", "b"),
				ast.Method("m1", ast.Ref("a")),
				ast.Method("m2", ast.Ref("b"))),
			lcom:   1,
			pairsP: 1,
		},
		{
			name: "shared field",
			class: ast.Class("K", ast.Field("a"),
				ast.Method("m1", ast.Ref("a")),
				ast.Method("m2", ast.Ref("this.a"))),
			lcom:   0,
			pairsP: 0,
		},
		{
			name:   "single method",
			class:  ast.Class("K", ast.Field("a"), ast.Method("m1", ast.Ref("a"))),
			lcom:   0,
			pairsP: 0,
		},
		{
			name:   "no fields touched",
			class:  ast.Class("K", ast.Method("m1"), ast.Method("m2"), ast.Method("m3")),
			lcom:   3,
			pairsP: 3,
		},
		{
			name: "mixed",
			class: ast.Class("K", ast.Field("a", "b"),
				ast.Method("m1", ast.Ref("a")),
				ast.Method("m2", ast.Ref("a"), ast.Ref("b")),
				ast.Method("m3", ast.Ref("b")),
				ast.Method("m4")),
			// shared: m1-m2, m2-m3; disjoint: m1-m3, m1-m4, m2-m4, m3-m4
			lcom:   2,
			pairsP: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := Traverse(ast.Unit(tt.class))

			m, ok := Compute(reg, "K")
			require.True(t, ok)
			assert.Equal(t, tt.lcom, m.LCOM)

			p, _ := Compute(reg, "K", WithLCOMFormula(LCOMPairs))
			assert.Equal(t, tt.pairsP, p.LCOM)
		})
	}
}

func TestComputeAll_Pure(t *testing.T) {
	root := ast.Unit(
		ast.Class("A", ast.Field("x"), ast.Method("m", ast.Ref("x"), ast.Param("B"))),
		ast.Class("B", ast.Extends("A"), ast.Method("n", ast.Alloc("A"))),
	)
	reg := Traverse(root)

	first := ComputeAll(reg)
	second := ComputeAll(reg)
	assert.Equal(t, first, second)

	single, _ := Compute(reg, "B")
	assert.Equal(t, first["B"], single)
	assert.Equal(t, []string{"B"}, reg["A"].Children())
}

func TestParseFormulas(t *testing.T) {
	rfc, err := ParseRFCFormula("")
	require.NoError(t, err)
	assert.Equal(t, RFCCanonical, rfc)

	rfc, err = ParseRFCFormula("additive")
	require.NoError(t, err)
	assert.Equal(t, RFCAdditive, rfc)

	_, err = ParseRFCFormula("sum")
	assert.Error(t, err)

	lcom, err := ParseLCOMFormula("pairs")
	require.NoError(t, err)
	assert.Equal(t, LCOMPairs, lcom)

	_, err = ParseLCOMFormula("lcom4")
	assert.Error(t, err)
}
