// Package ast defines the syntax tree consumed by the metrics visitor.
//
// The tree is deliberately small: every node carries a Kind drawn from a
// fixed vocabulary, an optional identifier (Image), an ordered child list
// and a textual rendering used where raw source text is needed (parameter
// types, instantiated types). Anything the visitor does not care about is
// KindOther and is only traversed.
//
// Providers turn source files into this tree. The tree-sitter provider in
// the treesitter subpackage handles Java:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	file, err := provider.Parse("Order.java")
//	if err != nil {
//	    return err
//	}
//
//	ast.Walk(file.Root, func(n *ast.Node) bool {
//	    if n.Kind == ast.KindClassDecl {
//	        fmt.Println(n.Image)
//	    }
//	    return true
//	})
package ast
