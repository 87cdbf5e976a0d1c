// internal/migration/priority.go
package migration

import (
	"sort"
	"strings"
)

/*
 * Rule ordering within a type's rule list.
 *
 * Predicates are evaluated in order; each ranks a single rule and the first
 * predicate that ranks two rules differently decides their order. Lower
 * ranks sort first:
 *   1. removed: rules for legacy shapes with no current equivalent
 *   2. generic: the per-type catch-all rule goes last
 *   3. wildcard package: patterns accepting any package go later
 *   4. back-references: templates copying more of the input are more generic
 *   5. segments: patterns with more "/" separators are more specific
 *
 * The sort is stable, so rules tied on every predicate keep authoring order.
 */

type orderPredicate struct {
	name string
	rank func(IdReplacer) int
}

const wildcardPackagePrefix = `^(\*|`

var orderPredicates = []orderPredicate{
	{"removed", func(r IdReplacer) int { return boolRank(!r.Removed) }},
	{"generic", func(r IdReplacer) int { return boolRank(r.Origin == OriginGeneric) }},
	{"wildcard package", func(r IdReplacer) int { return boolRank(strings.HasPrefix(r.Pattern(), wildcardPackagePrefix)) }},
	{"back-references", func(r IdReplacer) int { return r.BackReferences() }},
	{"segments", func(r IdReplacer) int { return -strings.Count(r.Pattern(), "/") }},
}

func boolRank(later bool) int {
	if later {
		return 1
	}
	return 0
}

// compareReplacers returns a negative number when a sorts before b, positive
// when after, and zero when no predicate separates them.
func compareReplacers(a, b IdReplacer) int {
	for _, p := range orderPredicates {
		if d := p.rank(a) - p.rank(b); d != 0 {
			return d
		}
	}
	return 0
}

// sortReplacers orders rules by priority, keeping authoring order for ties.
func sortReplacers(rs []IdReplacer) {
	sort.SliceStable(rs, func(i, j int) bool {
		return compareReplacers(rs[i], rs[j]) < 0
	})
}
