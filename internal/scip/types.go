// Package scip implements the high-fidelity index backend: decoding SCIP
// binary artifacts, extracting per-file entities from them, and keeping the
// decoded index fresh against the working tree.
package scip

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Symbol role bitmask values (Occurrence.SymbolRoles).
const (
	RoleDefinition = 0x1
	RoleImport     = 0x2
)

// Symbol kind codes (SymbolInformation.Kind). Only the subset the extractor
// cares about is named; the wire carries the full SCIP enum.
const (
	KindUnspecified      = 0
	KindClass            = 7
	KindConstructor      = 9
	KindFunction         = 16
	KindGetter           = 17
	KindInterface        = 20
	KindMacro            = 25
	KindMethod           = 26
	KindModule           = 30
	KindSetter           = 46
	KindSingletonMethod  = 48
	KindStaticMethod     = 52
	KindAbstractMethod   = 66
	KindProtocolMethod   = 68
	KindTypeClassMethod  = 71
	KindAccessor         = 72
	KindDelegate         = 73
	KindMethodAlias      = 74
	KindVariable         = 78
)

// callableKinds is the allow-list of kinds treated as function-like units.
var callableKinds = map[int32]bool{
	KindConstructor:     true,
	KindFunction:        true,
	KindGetter:          true,
	KindMacro:           true,
	KindMethod:          true,
	KindSetter:          true,
	KindSingletonMethod: true,
	KindStaticMethod:    true,
	KindAbstractMethod:  true,
	KindProtocolMethod:  true,
	KindTypeClassMethod: true,
	KindAccessor:        true,
	KindDelegate:        true,
	KindMethodAlias:     true,
}

// kindNames maps the textual enum names emitted by the JSON decode path
// back to kind codes. Only callable kinds and a few common non-callable
// ones need to round-trip; unknown names decode to KindUnspecified.
var kindNames = map[string]int32{
	"Class":           KindClass,
	"Constructor":     KindConstructor,
	"Function":        KindFunction,
	"Getter":          KindGetter,
	"Interface":       KindInterface,
	"Macro":           KindMacro,
	"Method":          KindMethod,
	"Module":          KindModule,
	"Setter":          KindSetter,
	"SingletonMethod": KindSingletonMethod,
	"StaticMethod":    KindStaticMethod,
	"AbstractMethod":  KindAbstractMethod,
	"ProtocolMethod":  KindProtocolMethod,
	"TypeClassMethod": KindTypeClassMethod,
	"Accessor":        KindAccessor,
	"Delegate":        KindDelegate,
	"MethodAlias":     KindMethodAlias,
	"Variable":        KindVariable,
}

// Index is a decoded SCIP artifact, reduced to the parts the extractor uses.
type Index struct {
	Documents []Document `json:"documents"`
}

// Document is the per-file unit of a SCIP index: a symbol metadata table
// plus an ordered occurrence list.
type Document struct {
	RelativePath string              `json:"relativePath"`
	Language     string              `json:"language,omitempty"`
	Symbols      []SymbolInformation `json:"symbols"`
	Occurrences  []Occurrence        `json:"occurrences"`
}

// SymbolInformation is the metadata record for one symbol.
type SymbolInformation struct {
	Symbol        string   `json:"symbol"`
	Documentation []string `json:"documentation,omitempty"`
	Kind          Kind     `json:"kind,omitempty"`
	DisplayName   string   `json:"displayName,omitempty"`
	SignatureText string   `json:"-"`
}

// Occurrence ties a symbol to a source range with a role bitmask.
// Range is [startLine, startChar, endLine, endChar] or the three-element
// form [line, startChar, endChar], all 0-based with half-open ends.
type Occurrence struct {
	Range       []int32 `json:"range"`
	Symbol      string  `json:"symbol"`
	SymbolRoles int32   `json:"symbolRoles,omitempty"`
}

// Kind is a SCIP symbol kind code. Its custom unmarshaller accepts both the
// numeric wire value and the textual enum name the CLI's JSON output uses.
type Kind int32

// UnmarshalJSON decodes either a number or an enum name string.
func (k *Kind) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) > 0 && s[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*k = Kind(kindNames[name])
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return err
	}
	*k = Kind(n)
	return nil
}

// sigDocJSON mirrors the nested signature_documentation document in the
// CLI's JSON output; only the text is of interest.
type sigDocJSON struct {
	Text string `json:"text,omitempty"`
}

// symbolInfoJSON is the JSON shape of SymbolInformation including the
// nested signature document, flattened into SymbolInformation on decode.
type symbolInfoJSON struct {
	Symbol                 string      `json:"symbol"`
	Documentation          []string    `json:"documentation,omitempty"`
	Kind                   Kind        `json:"kind,omitempty"`
	DisplayName            string      `json:"displayName,omitempty"`
	SignatureDocumentation *sigDocJSON `json:"signatureDocumentation,omitempty"`
}

// UnmarshalJSON flattens the nested signature document into SignatureText.
func (si *SymbolInformation) UnmarshalJSON(data []byte) error {
	var raw symbolInfoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	si.Symbol = raw.Symbol
	si.Documentation = raw.Documentation
	si.Kind = raw.Kind
	si.DisplayName = raw.DisplayName
	if raw.SignatureDocumentation != nil {
		si.SignatureText = raw.SignatureDocumentation.Text
	}
	return nil
}
