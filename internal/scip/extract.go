package scip

import (
	"sort"
	"strings"

	"github.com/vigil-dev/vigil/internal/backend"
)

// Extract converts one decoded document into the backend-agnostic result
// shape. Occurrences with the import role contribute dependency names;
// definition occurrences of callable symbols become entities.
func Extract(doc Document) *backend.ParseResult {
	symtab := make(map[string]SymbolInformation, len(doc.Symbols))
	for _, info := range doc.Symbols {
		symtab[info.Symbol] = info
	}

	deps := make(map[string]bool)
	seen := make(map[entityKey]bool)
	var entities []backend.ParsedEntity

	for _, occ := range doc.Occurrences {
		if occ.SymbolRoles&RoleImport != 0 {
			if pkg := packageName(occ.Symbol); pkg != "" {
				deps[pkg] = true
			}
		}
		if occ.SymbolRoles&RoleDefinition == 0 {
			continue
		}
		info, ok := symtab[occ.Symbol]
		if !ok || !callableKinds[int32(info.Kind)] {
			continue
		}
		name := info.DisplayName
		if name == "" {
			name = descriptorName(occ.Symbol)
		}
		if name == "" {
			continue
		}
		start, end := rangeToLines(occ.Range)
		key := entityKey{name: name, start: start, end: end}
		if seen[key] {
			continue
		}
		seen[key] = true
		entities = append(entities, backend.ParsedEntity{
			Name:      name,
			Signature: signatureFor(info, name),
			StartLine: start,
			EndLine:   end,
			Purpose:   firstLine(info.Documentation),
		})
	}

	exported := make(map[string]bool, len(entities))
	for _, e := range entities {
		exported[e.Name] = true
	}

	return &backend.ParseResult{
		Origin:       backend.OriginSCIP,
		Entities:     entities,
		Exported:     sortedKeys(exported),
		Dependencies: sortedKeys(deps),
	}
}

type entityKey struct {
	name       string
	start, end int
}

// rangeToLines converts a SCIP range (0-based, half-open) to 1-based
// inclusive line numbers. The three-element form [line, startChar, endChar]
// spans a single line.
func rangeToLines(r []int32) (start, end int) {
	if len(r) == 0 {
		return 1, 1
	}
	start = int(r[0]) + 1
	end = start
	if len(r) >= 4 {
		end = int(r[2]) + 1
	}
	if end < start {
		end = start
	}
	return start, end
}

// signatureFor picks the best available signature text for an entity.
func signatureFor(info SymbolInformation, name string) string {
	if info.SignatureText != "" {
		return info.SignatureText
	}
	if info.DisplayName != "" {
		return info.DisplayName
	}
	return name + "()"
}

// firstLine returns the first line of the first documentation block.
func firstLine(docs []string) string {
	if len(docs) == 0 {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(docs[0]), "\n")
	return strings.TrimSpace(line)
}

// packageName extracts the package segment from a SCIP symbol id:
// "<scheme> <manager> <package-name> <version> <descriptors>". Local
// symbols and the "." placeholder carry no package.
func packageName(symbol string) string {
	if strings.HasPrefix(symbol, "local ") {
		return ""
	}
	parts := strings.SplitN(symbol, " ", 5)
	if len(parts) < 4 {
		return ""
	}
	pkg := parts[2]
	if pkg == "." {
		return ""
	}
	return pkg
}

// descriptorName derives an entity name from the trailing descriptor
// segment of a SCIP symbol id, e.g. "... `src/a.ts`/parseThing()." yields
// "parseThing".
func descriptorName(symbol string) string {
	parts := strings.SplitN(symbol, " ", 5)
	if len(parts) < 5 {
		return ""
	}
	desc := strings.TrimSuffix(parts[4], ".")
	desc = strings.TrimSuffix(desc, "()")
	if i := strings.LastIndexAny(desc, "/#`"); i >= 0 {
		desc = desc[i+1:]
	}
	return strings.Trim(desc, "`.")
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
