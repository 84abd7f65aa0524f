package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/vigil-dev/vigil/internal/backend"
)

// rsExtractor extracts facts from Rust source files.
type rsExtractor struct{}

func (e *rsExtractor) Extract(root *tree_sitter.Node, source []byte, facts *fileFacts) {
	walkTree(root, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "function_item":
			e.addFunction(node, source, facts)
		case "use_declaration":
			if dep := useCrate(node, source); dep != "" {
				facts.deps[dep] = true
			}
		}
	})
}

func (e *rsExtractor) addFunction(node *tree_sitter.Node, source []byte, facts *fileFacts) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	start, end := nodeLines(node)
	facts.entities = append(facts.entities, backend.ParsedEntity{
		Name:      name,
		Signature: headline(node, source),
		StartLine: start,
		EndLine:   end,
	})
	if hasVisibilityModifier(node) {
		facts.exported[name] = true
	}
}

// hasVisibilityModifier reports whether the item carries a `pub` marker.
func hasVisibilityModifier(node *tree_sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "visibility_modifier" {
			return true
		}
	}
	return false
}

// useCrate extracts the root crate or module name from a use declaration.
func useCrate(node *tree_sitter.Node, source []byte) string {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return ""
	}
	text := strings.TrimSpace(arg.Utf8Text(source))
	if root, _, found := strings.Cut(text, "::"); found {
		return strings.TrimSpace(root)
	}
	return text
}
