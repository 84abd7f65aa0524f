// Package parser is the general-purpose fallback backend. It extracts
// function-like entities, exported names, and dependency names from source
// files using tree-sitter grammars. Tree-sitter is error-tolerant, so the
// parser produces a (possibly partial) result for any input, including
// syntactically invalid files — it never fails on content.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/vigil-dev/vigil/internal/backend"
)

// Language identifies a grammar.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
)

// extToLanguage maps file extensions to grammars.
var extToLanguage = map[string]Language{
	".go":  LangGo,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".py":  LangPython,
	".rs":  LangRust,
}

// fileFacts is the raw per-file output of a language extractor.
type fileFacts struct {
	entities []backend.ParsedEntity
	exported map[string]bool
	deps     map[string]bool
}

func newFileFacts() *fileFacts {
	return &fileFacts{exported: make(map[string]bool), deps: make(map[string]bool)}
}

// extractor walks a parsed AST and accumulates file facts.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte, facts *fileFacts)
}

// TreeSitterParser implements backend.Backend with tree-sitter grammars for
// Go, TypeScript, Python, and Rust. A new tree-sitter parser is created per
// call, so individual calls are independent.
type TreeSitterParser struct {
	languages  map[Language]*tree_sitter.Language
	extractors map[Language]extractor
}

// Compile-time check.
var _ backend.Backend = (*TreeSitterParser)(nil)

// NewTreeSitterParser creates a parser with all grammars registered.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{
		languages: map[Language]*tree_sitter.Language{
			LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
			LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
			LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
		},
		extractors: map[Language]extractor{
			LangGo:         &goExtractor{},
			LangTypeScript: &tsExtractor{},
			LangPython:     &pyExtractor{},
			LangRust:       &rsExtractor{},
		},
	}
}

// Resolve implements backend.Backend. Unknown extensions yield an empty
// result rather than an error; content is read from disk when the caller
// passes none.
func (p *TreeSitterParser) Resolve(_ context.Context, path string, content []byte) (*backend.ParseResult, error) {
	lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return emptyResult(), nil
	}
	if content == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return emptyResult(), nil
		}
		content = data
	}

	facts, err := p.parse(path, content, lang)
	if err != nil {
		// Grammar-level failure is not the caller's problem; the
		// contract is a result for any content.
		return emptyResult(), nil
	}

	return &backend.ParseResult{
		Origin:       backend.OriginTreeSitter,
		Entities:     facts.entities,
		Exported:     sortedKeys(facts.exported),
		Dependencies: sortedKeys(facts.deps),
	}, nil
}

func (p *TreeSitterParser) parse(path string, source []byte, lang Language) (*fileFacts, error) {
	tsLang := p.languages[lang]
	ext := p.extractors[lang]

	tsParser := tree_sitter.NewParser()
	defer tsParser.Close()

	if err := tsParser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("parser: set language %s: %w", lang, err)
	}
	tree := tsParser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parser: nil tree for %s", path)
	}
	defer tree.Close()

	facts := newFileFacts()
	ext.Extract(tree.RootNode(), source, facts)
	return facts, nil
}

// SupportedLanguages returns the languages this parser can handle.
func (p *TreeSitterParser) SupportedLanguages() []Language {
	langs := make([]Language, 0, len(p.languages))
	for l := range p.languages {
		langs = append(langs, l)
	}
	return langs
}

func emptyResult() *backend.ParseResult {
	return &backend.ParseResult{Origin: backend.OriginTreeSitter}
}

// --- shared extractor helpers ---

// walkTree runs visit over every node in depth-first order.
func walkTree(root *tree_sitter.Node, visit func(node *tree_sitter.Node)) {
	cursor := root.Walk()
	defer cursor.Close()
	var rec func()
	rec = func() {
		visit(cursor.Node())
		if cursor.GotoFirstChild() {
			rec()
			for cursor.GotoNextSibling() {
				rec()
			}
			cursor.GotoParent()
		}
	}
	rec()
}

// nodeLines returns the node's 1-based inclusive line span.
func nodeLines(node *tree_sitter.Node) (start, end int) {
	return int(node.StartPosition().Row) + 1, int(node.EndPosition().Row) + 1
}

// headline returns the first line of the node's text with any trailing
// block opener trimmed, used as a best-effort signature.
func headline(node *tree_sitter.Node, source []byte) string {
	text := node.Utf8Text(source)
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(line, "{")
	line = strings.TrimSuffix(line, ":")
	return strings.TrimSpace(line)
}

// unquote strips matching string delimiters from an import specifier.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
