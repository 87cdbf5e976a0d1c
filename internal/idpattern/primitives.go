// Package idpattern builds the regular expressions that describe valid
// Datasworn IDs for every dotted type path.
//
// An IdPattern is composed step by step (FromRoot, AddDictKey,
// AddRecursiveDictKeys, AddIndex, AddNewTypeGroup) and each step is checked
// against the type topology, so an invalid composition fails when the pattern
// is built rather than when an ID is first parsed.
package idpattern

import (
	"fmt"
	"regexp"

	"github.com/joeyeti/datasworn/internal/types"
)

// Regex sources for the atomic elements of an ID.
const (
	// DictKeyElement matches one dictionary key.
	DictKeyElement = `[a-z][a-z0-9_]*`

	// RulesPackageElement matches a rules-package ID.
	RulesPackageElement = DictKeyElement

	// IndexElement matches a non-negative array index.
	IndexElement = `\d+`

	wildcardElement = `\*`
	globstarElement = `\*\*`
	pathSep         = `\/`
	typeSep         = `\.`
)

// RecursiveDictKeysElement matches a chain of CollectionDepthMin to
// CollectionDepthMax dictionary keys.
var RecursiveDictKeysElement = recursiveDictKeys(types.CollectionDepthMin, types.CollectionDepthMax)

// Anchored validators for single elements.
var (
	DictKey        = regexp.MustCompile(`^` + DictKeyElement + `$`)
	RulesPackageID = regexp.MustCompile(`^` + RulesPackageElement + `$`)
	Index          = regexp.MustCompile(`^` + IndexElement + `$`)
)

func recursiveDictKeys(min, max int) string {
	return fmt.Sprintf(`%s(?:%s%s){%d,%d}`, DictKeyElement, pathSep, DictKeyElement, min-1, max-1)
}

// Mode selects which path elements a rendered pattern accepts.
type Mode int

const (
	// Exact accepts literal keys and indices only.
	Exact Mode = iota
	// Wildcard additionally accepts "*" for any element, and "**" inside key
	// chains that descend through recursive collections.
	Wildcard
)

func (m Mode) String() string {
	if m == Wildcard {
		return "wildcard"
	}
	return "exact"
}

// GroupStyle controls how each type group of the path side is wrapped.
type GroupStyle int

const (
	GroupNone GroupStyle = iota
	GroupCapture
	GroupNonCapturing
	// GroupNamed names each group after its type ID, e.g. (?P<asset>...).
	GroupNamed
)

func packageElement(mode Mode) string {
	if mode == Wildcard {
		return `(?:` + wildcardElement + `|` + RulesPackageElement + `)`
	}
	return RulesPackageElement
}

func keyElement(mode Mode, recursive bool) string {
	switch {
	case mode == Wildcard && recursive:
		return `(?:` + globstarElement + `|` + wildcardElement + `|` + DictKeyElement + `)`
	case mode == Wildcard:
		return `(?:` + wildcardElement + `|` + DictKeyElement + `)`
	default:
		return DictKeyElement
	}
}

func indexElement(mode Mode) string {
	if mode == Wildcard {
		return `(?:` + wildcardElement + `|` + IndexElement + `)`
	}
	return IndexElement
}

// keyChain renders min..max repetitions of a dictionary key. A leading chain
// continues a path, so every key gets a separator; otherwise the first key
// opens the type group without one.
func keyChain(el string, min, max int, leading bool) string {
	if !leading {
		if max <= 1 {
			return el
		}
		return el + separatedReps(el, min-1, max-1)
	}
	return separatedReps(el, min, max)
}

func separatedReps(el string, min, max int) string {
	group := `(?:` + pathSep + el + `)`
	switch {
	case min == 1 && max == 1:
		return pathSep + el
	case min == max:
		return fmt.Sprintf(`%s{%d}`, group, min)
	default:
		return fmt.Sprintf(`%s{%d,%d}`, group, min, max)
	}
}
