package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/vigil-dev/vigil/internal/backend"
)

// pyExtractor extracts facts from Python source files.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte, facts *fileFacts) {
	walkTree(root, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "function_definition":
			e.addFunction(node, source, facts)
		case "import_statement":
			e.addImports(node, source, facts)
		case "import_from_statement":
			if mod := node.ChildByFieldName("module_name"); mod != nil {
				if dep := strings.TrimSpace(mod.Utf8Text(source)); dep != "" {
					facts.deps[dep] = true
				}
			}
		}
	})
}

func (e *pyExtractor) addFunction(node *tree_sitter.Node, source []byte, facts *fileFacts) {
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
	// Python convention: a leading underscore marks a private name.
	if !strings.HasPrefix(name, "_") {
		facts.exported[name] = true
	}
}

// addImports handles "import a.b, c as d" statements.
func (e *pyExtractor) addImports(node *tree_sitter.Node, source []byte, facts *fileFacts) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			facts.deps[child.Utf8Text(source)] = true
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				facts.deps[name.Utf8Text(source)] = true
			}
		}
	}
}
