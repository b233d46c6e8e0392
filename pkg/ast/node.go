package ast

// Kind is the category of a syntax tree node.
type Kind int

const (
	KindOther Kind = iota
	KindCompilationUnit
	KindClassDecl
	KindExtendsList
	KindClassOrInterfaceType
	KindMethodDecl
	KindMethodDeclarator
	KindFieldDecl
	KindVariableDeclarator
	KindVariableDeclaratorID
	KindFormalParameter
	KindAllocation
	KindPrimaryExpression
	KindPrimaryPrefix
	KindName
)

var kindNames = [...]string{
	KindOther:                "Other",
	KindCompilationUnit:      "CompilationUnit",
	KindClassDecl:            "ClassOrInterfaceDeclaration",
	KindExtendsList:          "ExtendsList",
	KindClassOrInterfaceType: "ClassOrInterfaceType",
	KindMethodDecl:           "MethodDeclaration",
	KindMethodDeclarator:     "MethodDeclarator",
	KindFieldDecl:            "FieldDeclaration",
	KindVariableDeclarator:   "VariableDeclarator",
	KindVariableDeclaratorID: "VariableDeclaratorId",
	KindFormalParameter:      "FormalParameter",
	KindAllocation:           "AllocationExpression",
	KindPrimaryExpression:    "PrimaryExpression",
	KindPrimaryPrefix:        "PrimaryPrefix",
	KindName:                 "Name",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Node is a syntax tree node.
type Node struct {
	Kind Kind

	// Image is the identifier attached to the node, if any: a class or
	// method name, a declared variable, a (possibly dotted) name reference.
	Image string

	// Text is the node rendering used when raw text is needed. For formal
	// parameters it is the parameter type, for allocations the instantiated
	// type.
	Text string

	// Line is the 1-based source line, 0 when unknown.
	Line int

	Children []*Node
}

// String returns the textual rendering of the node, falling back to its
// image and then to its kind name.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	if n.Text != "" {
		return n.Text
	}
	if n.Image != "" {
		return n.Image
	}
	return n.Kind.String()
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// Child returns the i-th child or nil when out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// FirstChild returns the first direct child of the given kind, or nil.
func (n *Node) FirstChild(kind Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c != nil && c.Kind == kind {
			return c
		}
	}
	return nil
}

// Visitor is called for every node during Walk. Returning false skips the
// node's children.
type Visitor func(n *Node) bool

// Walk traverses the tree depth-first in source order.
func Walk(n *Node, visit Visitor) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// Count returns the number of nodes of the given kind in the tree.
func Count(root *Node, kind Kind) int {
	count := 0
	Walk(root, func(n *Node) bool {
		if n.Kind == kind {
			count++
		}
		return true
	})
	return count
}
