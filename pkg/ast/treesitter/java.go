package treesitter

import (
	"strings"

	"github.com/panbanda/oometrics/pkg/ast"
	"github.com/panbanda/oometrics/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// converter maps tree-sitter-java nodes onto the ast vocabulary. Nodes the
// metrics do not need collapse into KindOther or are dropped when they
// cannot contain anything of interest.
type converter struct {
	source []byte
}

func (c *converter) text(n *sitter.Node) string {
	return parser.GetNodeText(n, c.source)
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// skipped node types never contribute facts.
var skipped = map[string]bool{
	"package_declaration": true,
	"import_declaration":  true,
	"modifiers":           true,
	"annotation":          true,
	"marker_annotation":   true,
	"line_comment":        true,
	"block_comment":       true,
	"type_parameters":     true,
	"type_arguments":      true,
	"super_interfaces":    true,
	"throws":              true,
	"receiver_parameter":  true,
	"inferred_parameters": true,
	"superclass":          true,
	"extends_interfaces":  true,
}

func (c *converter) convert(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	nodeType := n.Type()
	if skipped[nodeType] {
		return nil
	}

	switch nodeType {
	case "program":
		return ast.Unit(c.children(n)...)
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		return c.classDecl(n)
	case "method_declaration":
		return c.methodDecl(n)
	case "field_declaration", "constant_declaration":
		return c.fieldDecl(n)
	case "variable_declarator":
		return c.declarator(n)
	case "formal_parameter", "spread_parameter", "catch_formal_parameter":
		return c.formalParameter(n)
	case "object_creation_expression", "array_creation_expression":
		return c.allocation(n)
	case "identifier":
		return c.ref(c.text(n), n)
	case "field_access":
		return c.fieldAccess(n)
	case "method_invocation":
		return c.invocation(n)
	case "lambda_expression":
		params := n.ChildByFieldName("parameters")
		if params != nil && params.Type() == "formal_parameters" {
			return ast.Block(nonNil(c.convert(params), c.convert(n.ChildByFieldName("body")))...)
		}
		return c.wrap(c.convert(n.ChildByFieldName("body")))
	}

	// Leaves other than identifiers carry nothing the visitor uses.
	if n.NamedChildCount() == 0 {
		return nil
	}
	return c.wrap(c.children(n)...)
}

// children converts the named children of n, dropping declaration names and
// statement labels so they are not mistaken for references.
func (c *converter) children(n *sitter.Node) []*ast.Node {
	count := int(n.NamedChildCount())
	out := make([]*ast.Node, 0, count)
	for i := range count {
		child := n.NamedChild(i)
		if child.Type() == "identifier" && c.isDeclaredName(n, child) {
			continue
		}
		if conv := c.convert(child); conv != nil {
			out = append(out, conv)
		}
	}
	return out
}

// isDeclaredName reports whether child is the identifier a declaration or
// label statement introduces rather than a use of a name.
func (c *converter) isDeclaredName(parent, child *sitter.Node) bool {
	switch parent.Type() {
	case "labeled_statement", "break_statement", "continue_statement":
		return true
	}
	name := parent.ChildByFieldName("name")
	return name != nil && name.StartByte() == child.StartByte() && name.EndByte() == child.EndByte()
}

func (c *converter) wrap(children ...*ast.Node) *ast.Node {
	children = nonNil(children...)
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return ast.Block(children...)
	}
}

func (c *converter) classDecl(n *sitter.Node) *ast.Node {
	cls := ast.Class(c.text(n.ChildByFieldName("name")))
	cls.Line = line(n)

	if ext := c.extendsList(n); ext != nil {
		cls.Children = append(cls.Children, ext)
	}
	// Record components behave like constructor parameters.
	if params := n.ChildByFieldName("parameters"); params != nil {
		cls.Children = append(cls.Children, c.children(params)...)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		cls.Children = append(cls.Children, c.children(body)...)
	}
	return cls
}

// extendsList collects the extends clause of a class or interface. Classes
// carry a single superclass, interfaces may extend several types.
func (c *converter) extendsList(n *sitter.Node) *ast.Node {
	var types []string

	if super := n.ChildByFieldName("superclass"); super != nil {
		for i := range int(super.NamedChildCount()) {
			if name := parser.CleanTypeName(c.text(super.NamedChild(i))); name != "" {
				types = append(types, name)
				break
			}
		}
	}
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		if child.Type() != "extends_interfaces" {
			continue
		}
		parser.WalkTyped(child, c.source, func(t *sitter.Node, nodeType string, src []byte) bool {
			if isTypeNode(nodeType) {
				if name := parser.CleanTypeName(parser.GetNodeText(t, src)); name != "" {
					types = append(types, name)
				}
				return false
			}
			return true
		})
	}

	if len(types) == 0 {
		return nil
	}
	ext := ast.Extends(types...)
	ext.Line = line(n)
	return ext
}

func (c *converter) methodDecl(n *sitter.Node) *ast.Node {
	m := ast.Method(c.text(n.ChildByFieldName("name")))
	m.Line = line(n)
	m.Children[0].Line = m.Line

	if params := n.ChildByFieldName("parameters"); params != nil {
		m.Children = append(m.Children, c.children(params)...)
	}
	if body := c.convert(n.ChildByFieldName("body")); body != nil {
		m.Children = append(m.Children, body)
	}
	return m
}

func (c *converter) fieldDecl(n *sitter.Node) *ast.Node {
	f := ast.NewNode(ast.KindFieldDecl, "")
	f.Line = line(n)
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		if child.Type() == "variable_declarator" {
			f.Children = append(f.Children, c.declarator(child))
		}
	}
	return f
}

func (c *converter) declarator(n *sitter.Node) *ast.Node {
	d := ast.NewNode(ast.KindVariableDeclarator, "")
	if name := n.ChildByFieldName("name"); name != nil {
		id := ast.NewNode(ast.KindVariableDeclaratorID, c.text(name))
		id.Line = line(name)
		d.Children = append(d.Children, id)
	}
	if value := c.convert(n.ChildByFieldName("value")); value != nil {
		d.Children = append(d.Children, value)
	}
	return d
}

func (c *converter) formalParameter(n *sitter.Node) *ast.Node {
	p := &ast.Node{Kind: ast.KindFormalParameter, Line: line(n)}

	typeNode := n.ChildByFieldName("type")
	var nameNode *sitter.Node
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		switch t := child.Type(); {
		case typeNode == nil && (isTypeNode(t) || t == "catch_type"):
			typeNode = child
		case t == "identifier" && nameNode == nil:
			nameNode = child
		case t == "variable_declarator":
			nameNode = child.ChildByFieldName("name")
		}
	}
	if nameNode == nil {
		nameNode = n.ChildByFieldName("name")
	}

	typeText := c.text(typeNode)
	if typeNode != nil && typeNode.Type() == "catch_type" {
		// Multi-catch: the first alternative stands for the parameter type.
		typeText = strings.Split(typeText, "|")[0]
	}
	p.Text = parser.CleanTypeName(typeText)
	if nameNode != nil {
		p.Image = c.text(nameNode)
		p.Children = append(p.Children, ast.NewNode(ast.KindVariableDeclaratorID, p.Image))
	}
	return p
}

func (c *converter) allocation(n *sitter.Node) *ast.Node {
	typeNode := n.ChildByFieldName("type")
	typeText := parser.CleanTypeName(c.text(typeNode))

	a := &ast.Node{Kind: ast.KindAllocation, Text: typeText, Line: line(n)}
	a.Children = append(a.Children, ast.NewNode(ast.KindClassOrInterfaceType, typeText))

	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		if typeNode != nil && child.StartByte() == typeNode.StartByte() && child.Type() == typeNode.Type() {
			continue
		}
		if conv := c.convert(child); conv != nil {
			a.Children = append(a.Children, conv)
		}
	}
	return a
}

func (c *converter) ref(image string, n *sitter.Node, suffix ...*ast.Node) *ast.Node {
	r := ast.Ref(image, nonNil(suffix...)...)
	r.Line = line(n)
	r.Children[0].Children[0].Line = r.Line
	return r
}

// dottedName renders identifier, this and field access chains rooted at
// them as a dotted name ("this.orders", "a.b.c").
func (c *converter) dottedName(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "identifier", "this":
		return c.text(n), true
	case "field_access":
		obj, ok := c.dottedName(n.ChildByFieldName("object"))
		field := n.ChildByFieldName("field")
		if !ok || field == nil {
			return "", false
		}
		return obj + "." + c.text(field), true
	default:
		return "", false
	}
}

func (c *converter) fieldAccess(n *sitter.Node) *ast.Node {
	if name, ok := c.dottedName(n); ok {
		return c.ref(name, n)
	}
	return c.wrap(c.convert(n.ChildByFieldName("object")))
}

func (c *converter) invocation(n *sitter.Node) *ast.Node {
	name := c.text(n.ChildByFieldName("name"))
	args := c.convert(n.ChildByFieldName("arguments"))
	object := n.ChildByFieldName("object")

	if object == nil {
		return c.ref(name, n, args)
	}
	if prefix, ok := c.dottedName(object); ok {
		return c.ref(prefix+"."+name, n, args)
	}
	return c.wrap(c.convert(object), args)
}

func isTypeNode(nodeType string) bool {
	switch nodeType {
	case "type_identifier", "scoped_type_identifier", "generic_type", "array_type",
		"integral_type", "floating_point_type", "boolean_type", "void_type":
		return true
	}
	return false
}
