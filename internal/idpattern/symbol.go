// internal/idpattern/symbol.go
package idpattern

import (
	"strings"

	"github.com/joeyeti/datasworn/internal/typeid"
)

/*
 * Path symbols and path formats.
 *
 * A PathFormat is one type group of the path side of an ID: the run of
 * symbols between type separators. The first format of every ID starts with
 * the rules-package symbol; embedded formats start directly with their own
 * key or index.
 *
 * Rendering merges consecutive dictionary-key symbols into one bounded
 * repetition so no redundant separators appear between them. The merged
 * bounds are the sums of each symbol's repetition bounds.
 */

// SymbolKind distinguishes the variants of PathSymbol.
type SymbolKind int

const (
	SymbolRulesPackage SymbolKind = iota
	SymbolDictKey
	SymbolRecursiveDictKeys
	SymbolIndex
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolRulesPackage:
		return "rules_package"
	case SymbolDictKey:
		return "dict_key"
	case SymbolRecursiveDictKeys:
		return "recursive_dict_keys"
	default:
		return "index"
	}
}

// PathSymbol is one element of the path side of an ID.
type PathSymbol struct {
	Kind              SymbolKind
	Property          string        // property on Origin holding the entries
	RecursiveProperty string        // child-collection property, recursive symbols only
	Origin            typeid.TypeID // node type the property belongs to
	Entry             typeid.TypeID // node type addressed by the symbol
	MinReps           int
	MaxReps           int
}

// IsDictKey reports whether the symbol renders as dictionary keys.
func (s PathSymbol) IsDictKey() bool {
	return s.Kind == SymbolDictKey || s.Kind == SymbolRecursiveDictKeys
}

// PathFormat is an ordered run of symbols resolving to TypeID.
type PathFormat struct {
	TypeID   typeid.TypeID
	Relative bool // starts with the rules-package symbol
	Symbols  []PathSymbol
}

func (f PathFormat) clone(typ typeid.TypeID) PathFormat {
	out := PathFormat{TypeID: typ, Relative: f.Relative}
	out.Symbols = append([]PathSymbol(nil), f.Symbols...)
	return out
}

// RecursiveIndex returns the position of the recursive symbol, or -1.
func (f PathFormat) RecursiveIndex() int {
	for i, s := range f.Symbols {
		if s.Kind == SymbolRecursiveDictKeys {
			return i
		}
	}
	return -1
}

// Source renders the format as a regular expression fragment.
func (f PathFormat) Source(mode Mode, groups GroupStyle) string {
	var b strings.Builder
	var chain []PathSymbol

	flush := func() {
		if len(chain) == 0 {
			return
		}
		min, max, recursive := 0, 0, false
		for _, s := range chain {
			min += s.MinReps
			max += s.MaxReps
			recursive = recursive || s.Kind == SymbolRecursiveDictKeys
		}
		b.WriteString(keyChain(keyElement(mode, recursive), min, max, b.Len() > 0))
		chain = nil
	}

	for _, s := range f.Symbols {
		switch s.Kind {
		case SymbolRulesPackage:
			b.WriteString(packageElement(mode))
		case SymbolDictKey, SymbolRecursiveDictKeys:
			chain = append(chain, s)
		default:
			flush()
			if b.Len() > 0 {
				b.WriteString(pathSep)
			}
			b.WriteString(indexElement(mode))
		}
	}
	flush()

	base := b.String()
	switch groups {
	case GroupCapture:
		return `(` + base + `)`
	case GroupNonCapturing:
		return `(?:` + base + `)`
	case GroupNamed:
		return `(?P<` + string(f.TypeID) + `>` + base + `)`
	default:
		return base
	}
}

// wildcardSegments renders the fully wildcarded path elements of the format.
func (f PathFormat) wildcardSegments(pkg string) []string {
	var segs []string
	for _, s := range f.Symbols {
		switch s.Kind {
		case SymbolRulesPackage:
			segs = append(segs, pkg)
		case SymbolRecursiveDictKeys:
			segs = append(segs, "**")
		default:
			segs = append(segs, "*")
		}
	}
	return segs
}
