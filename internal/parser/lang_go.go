package parser

import (
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/vigil-dev/vigil/internal/backend"
)

// goExtractor extracts facts from Go source files.
type goExtractor struct{}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte, facts *fileFacts) {
	walkTree(root, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "function_declaration", "method_declaration":
			e.addFunction(node, source, facts)
		case "import_spec":
			if path := node.ChildByFieldName("path"); path != nil {
				if dep := unquote(path.Utf8Text(source)); dep != "" {
					facts.deps[dep] = true
				}
			}
		}
	})
}

func (e *goExtractor) addFunction(node *tree_sitter.Node, source []byte, facts *fileFacts) {
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
	if isGoExported(name) {
		facts.exported[name] = true
	}
}

// isGoExported reports whether a Go identifier is exported (starts with an
// uppercase letter).
func isGoExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
