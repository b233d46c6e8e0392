package cohesion

import (
	"strings"

	"github.com/panbanda/oometrics/pkg/ast"
	"go.uber.org/zap"
)

// DefaultExcludedTypes are type names that never count as coupling:
// standard runtime and container types, primitives and their boxes.
var DefaultExcludedTypes = []string{
	"String", "System", "List", "Map", "Set", "ArrayList", "HashMap", "HashSet",
	"Object", "void",
	"boolean", "byte", "char", "short", "int", "long", "float", "double",
	"Boolean", "Byte", "Character", "Short", "Integer", "Long", "Float", "Double",
}

// VisitorOption configures traversal.
type VisitorOption func(*visitor)

// WithVisitorLogger sets the logger used for field discovery traces.
func WithVisitorLogger(logger *zap.Logger) VisitorOption {
	return func(v *visitor) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithExcludedTypes adds type names to the default excluded set.
func WithExcludedTypes(names ...string) VisitorOption {
	return func(v *visitor) {
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				v.excluded.add(n)
			}
		}
	}
}

// WithSourcePath tags newly registered classes with the file they came from.
func WithSourcePath(path string) VisitorOption {
	return func(v *visitor) {
		v.path = path
	}
}

type visitor struct {
	reg      Registry
	excluded set
	path     string
	logger   *zap.Logger
}

// scope is the traversal context: the enclosing class and method, if any.
type scope struct {
	class  *ClassFacts
	method string
}

// Collector folds one or more compilation units into a single registry.
type Collector struct {
	v *visitor
}

// NewCollector creates a collector with an empty registry.
func NewCollector(opts ...VisitorOption) *Collector {
	v := &visitor{
		reg:      make(Registry),
		excluded: setOf(DefaultExcludedTypes),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return &Collector{v: v}
}

// SetSourcePath changes the path recorded for classes registered by
// subsequent Visit calls.
func (c *Collector) SetSourcePath(path string) {
	c.v.path = path
}

// Visit walks root and finalizes the registry. Finalize is recomputed from
// scratch, so visiting several units yields the same children as visiting
// them all at once.
func (c *Collector) Visit(root *ast.Node) {
	if root == nil {
		return
	}
	c.v.visit(root, scope{})
	if root.Kind != ast.KindCompilationUnit {
		c.v.reg.finalize()
	}
}

// Registry returns the collected registry.
func (c *Collector) Registry() Registry {
	return c.v.reg
}

// Traverse walks a compilation unit and returns the facts of every class
// declared in it.
func Traverse(root *ast.Node, opts ...VisitorOption) Registry {
	c := NewCollector(opts...)
	c.Visit(root)
	return c.Registry()
}

func (v *visitor) visit(n *ast.Node, sc scope) {
	switch n.Kind {
	case ast.KindCompilationUnit:
		v.visitChildren(n, sc)
		v.reg.finalize()
		return

	case ast.KindClassDecl:
		v.visitClass(n)
		return

	case ast.KindMethodDecl:
		if sc.class != nil {
			v.visitMethod(n, sc)
			return
		}

	case ast.KindFieldDecl:
		if sc.class != nil {
			v.visitField(n, sc)
		}

	case ast.KindFormalParameter, ast.KindAllocation:
		if sc.class != nil {
			v.couple(sc.class, n.String())
		}

	case ast.KindPrimaryExpression:
		if sc.class != nil && sc.method != "" {
			v.visitReference(n, sc)
		}
	}

	v.visitChildren(n, sc)
}

func (v *visitor) visitChildren(n *ast.Node, sc scope) {
	for _, child := range n.Children {
		if child != nil {
			v.visit(child, sc)
		}
	}
}

func (v *visitor) visitClass(n *ast.Node) {
	facts, existed := v.reg[n.Image]
	if !existed {
		facts = v.reg.getOrCreate(n.Image)
		facts.Path = v.path
		facts.Line = n.Line
	}

	if ext := n.FirstChild(ast.KindExtendsList); ext != nil {
		if typ := ext.FirstChild(ast.KindClassOrInterfaceType); typ != nil {
			facts.Parent = typ.Image
		}
	}

	// A class body starts outside any method.
	v.visitChildren(n, scope{class: facts})
}

func (v *visitor) visitMethod(n *ast.Node, sc scope) {
	name := n.String()
	if decl := n.FirstChild(ast.KindMethodDeclarator); decl != nil {
		name = decl.Image
	}
	sc.class.AddMethod(name)

	v.visitChildren(n, scope{class: sc.class, method: name})

	for _, target := range callTargets(n) {
		sc.class.AddInvokedMethod(target)
	}
}

func (v *visitor) visitField(n *ast.Node, sc scope) {
	for _, decl := range n.Children {
		if decl == nil || decl.Kind != ast.KindVariableDeclarator {
			continue
		}
		for _, id := range decl.Children {
			if id == nil || id.Kind != ast.KindVariableDeclaratorID {
				continue
			}
			sc.class.AddField(id.Image)
			v.logger.Debug("field found",
				zap.String("class", sc.class.Name),
				zap.String("field", id.Image))
		}
	}
}

func (v *visitor) visitReference(n *ast.Node, sc scope) {
	name, ok := referenceName(n)
	if !ok {
		return
	}
	field := lastSegment(name)
	if !sc.class.HasField(field) {
		return
	}
	sc.class.AddAccessedField(sc.method, field)
	v.logger.Debug("field access",
		zap.String("class", sc.class.Name),
		zap.String("method", sc.method),
		zap.String("field", field))
}

func (v *visitor) couple(facts *ClassFacts, raw string) {
	if name, ok := v.normalize(raw, facts.Name); ok {
		facts.AddCoupledClass(name)
	}
}

// normalize reduces a type rendering to a simple name and drops self
// references and excluded types.
func (v *visitor) normalize(raw, self string) (string, bool) {
	name := strings.TrimSpace(lastSegment(raw))
	if name == "" || name == self || v.excluded.has(name) {
		return "", false
	}
	return name, true
}

// referenceName matches the simple-name reference pattern: a primary
// expression whose prefix starts with a name.
func referenceName(n *ast.Node) (string, bool) {
	prefix := n.Child(0)
	if prefix == nil || prefix.Kind != ast.KindPrimaryPrefix {
		return "", false
	}
	name := prefix.Child(0)
	if name == nil || name.Kind != ast.KindName {
		return "", false
	}
	return name.Image, true
}

// callTargets collects the full name of every simple-name reference in a
// method subtree. Bare variable and field reads match as well.
func callTargets(method *ast.Node) []string {
	found := make(set)
	ast.Walk(method, func(n *ast.Node) bool {
		if n.Kind == ast.KindPrimaryExpression {
			if name, ok := referenceName(n); ok {
				found.add(name)
			}
		}
		return true
	})
	return found.sorted()
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
