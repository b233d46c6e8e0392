package ast

// Constructors for hand-built trees. The Java provider produces the same
// shapes, so tests and other front ends can build input without a parser.

// NewNode creates a node with children.
func NewNode(kind Kind, image string, children ...*Node) *Node {
	return &Node{Kind: kind, Image: image, Children: children}
}

// Unit builds a compilation unit.
func Unit(children ...*Node) *Node {
	return NewNode(KindCompilationUnit, "", children...)
}

// Class builds a class declaration. Pass an Extends node among the
// children to declare a superclass.
func Class(name string, children ...*Node) *Node {
	return NewNode(KindClassDecl, name, children...)
}

// Extends builds an extends list naming one or more types.
func Extends(types ...string) *Node {
	n := NewNode(KindExtendsList, "")
	for _, t := range types {
		n.Children = append(n.Children, NewNode(KindClassOrInterfaceType, t))
	}
	return n
}

// Method builds a method declaration with a declarator child carrying the
// name, followed by the given parameter and body nodes.
func Method(name string, children ...*Node) *Node {
	decl := NewNode(KindMethodDeclarator, name)
	return NewNode(KindMethodDecl, "", append([]*Node{decl}, children...)...)
}

// Field builds a field declaration with one declarator per name.
func Field(names ...string) *Node {
	n := NewNode(KindFieldDecl, "")
	for _, name := range names {
		id := NewNode(KindVariableDeclaratorID, name)
		n.Children = append(n.Children, NewNode(KindVariableDeclarator, "", id))
	}
	return n
}

// Param builds a formal parameter whose rendering is the parameter type.
func Param(typeText string) *Node {
	return &Node{Kind: KindFormalParameter, Text: typeText}
}

// Alloc builds an allocation expression for the given type.
func Alloc(typeText string, args ...*Node) *Node {
	typ := NewNode(KindClassOrInterfaceType, typeText)
	return &Node{Kind: KindAllocation, Text: typeText, Children: append([]*Node{typ}, args...)}
}

// Ref builds a simple-name reference: a primary expression whose prefix is
// a name, e.g. "x", "this.x" or "obj.call". Extra nodes become suffixes.
func Ref(image string, suffix ...*Node) *Node {
	prefix := NewNode(KindPrimaryPrefix, "", NewNode(KindName, image))
	return NewNode(KindPrimaryExpression, "", append([]*Node{prefix}, suffix...)...)
}

// Block wraps nodes in a pass-through node.
func Block(children ...*Node) *Node {
	return NewNode(KindOther, "", children...)
}
