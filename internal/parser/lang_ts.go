package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/vigil-dev/vigil/internal/backend"
)

// tsExtractor extracts facts from TypeScript source files.
type tsExtractor struct{}

func (e *tsExtractor) Extract(root *tree_sitter.Node, source []byte, facts *fileFacts) {
	walkTree(root, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "function_declaration", "method_definition", "generator_function_declaration":
			e.addFunction(node, source, facts)
		case "lexical_declaration":
			e.addArrowFunctions(node, source, facts)
		case "import_statement":
			if src := node.ChildByFieldName("source"); src != nil {
				if dep := unquote(src.Utf8Text(source)); dep != "" {
					facts.deps[dep] = true
				}
			}
		}
	})
}

func (e *tsExtractor) addFunction(node *tree_sitter.Node, source []byte, facts *fileFacts) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	e.emit(node, nameNode.Utf8Text(source), source, facts)
}

// addArrowFunctions handles `const f = (...) => {...}` declarations, which
// are the dominant function style in much TypeScript code.
func (e *tsExtractor) addArrowFunctions(node *tree_sitter.Node, source []byte, facts *fileFacts) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		value := child.ChildByFieldName("value")
		if value == nil {
			continue
		}
		if k := value.Kind(); k != "arrow_function" && k != "function_expression" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		e.emit(child, nameNode.Utf8Text(source), source, facts)
	}
}

func (e *tsExtractor) emit(node *tree_sitter.Node, name string, source []byte, facts *fileFacts) {
	start, end := nodeLines(node)
	facts.entities = append(facts.entities, backend.ParsedEntity{
		Name:      name,
		Signature: headline(node, source),
		StartLine: start,
		EndLine:   end,
	})
	if isTSExported(node) {
		facts.exported[name] = true
	}
}

// isTSExported reports whether the declaration sits under an export
// statement.
func isTSExported(node *tree_sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "export_statement" {
			return true
		}
	}
	return false
}
