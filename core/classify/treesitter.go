//go:build cgo

package classify

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// declarationNodeTypes are the C# nodes that declare a type.
var declarationNodeTypes = map[string]bool{
	"class_declaration":     true,
	"interface_declaration": true,
	"struct_declaration":    true,
	"enum_declaration":      true,
	"record_declaration":    true,
}

// StructuralParsing reports whether declarations come from a syntax tree.
func StructuralParsing() bool { return true }

// parseDeclarations parses C# source with tree-sitter.
// It reports false when the language is unsupported or the tree has errors.
func parseDeclarations(ctx context.Context, lang Language, content []byte) (Declarations, bool) {
	if lang != LangCSharp {
		return Declarations{}, false
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(csharp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil || tree == nil {
		return Declarations{}, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return Declarations{}, false
	}

	types := newNameSet()
	ifaces := newNameSet()
	walk(root, func(n *sitter.Node) {
		if !declarationNodeTypes[n.Type()] {
			return
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			return
		}
		id := name.Content(content)
		types.add(id)
		if n.Type() == "interface_declaration" {
			ifaces.add(id)
		}
	})
	return Declarations{Types: types.sorted(), Interfaces: ifaces.sorted()}, true
}

// walk visits every named node depth first with an explicit stack.
func walk(root *sitter.Node, visit func(*sitter.Node)) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(n)
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
}
