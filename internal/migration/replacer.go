// internal/migration/replacer.go
package migration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joeyeti/datasworn/internal/types"
)

// Rule origins. Generic rules are derived per type and only apply when no
// more specific rule matches.
const (
	OriginGeneric = "generic"
	OriginRename  = "rename"
	OriginHand    = "hand"
)

// IdReplacer rewrites legacy IDs matching Old into the New template.
// Templates use regexp.Expand syntax (${1}). A removed replacer marks a legacy
// shape that has no current equivalent.
type IdReplacer struct {
	Old     *regexp.Regexp
	New     string
	Removed bool
	Origin  string
}

// newReplacer compiles an anchored legacy pattern.
// Returns ErrInvalidReplacer for a malformed pattern or template.
func newReplacer(pattern, template, origin string) (IdReplacer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return IdReplacer{}, fmt.Errorf("%w: %s: %v", types.ErrInvalidReplacer, pattern, err)
	}
	r := IdReplacer{Old: re, New: template, Origin: origin}
	if n := r.BackReferences(); n > re.NumSubexp() {
		return IdReplacer{}, fmt.Errorf("%w: %q references %d groups, pattern has %d", types.ErrInvalidReplacer, template, n, re.NumSubexp())
	}
	return r, nil
}

func removedReplacer(pattern string) (IdReplacer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return IdReplacer{}, fmt.Errorf("%w: %s: %v", types.ErrInvalidReplacer, pattern, err)
	}
	return IdReplacer{Old: re, Removed: true, Origin: OriginHand}, nil
}

// Match reports whether the replacer applies to id.
func (r IdReplacer) Match(id string) bool {
	return r.Old.MatchString(id)
}

// Apply rewrites id. The second result is false when the replacer does not
// match. A removed replacer matches without producing an ID.
func (r IdReplacer) Apply(id string) (string, bool) {
	m := r.Old.FindStringSubmatchIndex(id)
	if m == nil {
		return "", false
	}
	if r.Removed {
		return "", true
	}
	return string(r.Old.ExpandString(nil, r.New, id, m)), true
}

// BackReferences counts the capture-group references in the template.
func (r IdReplacer) BackReferences() int {
	return strings.Count(r.New, "${")
}

// Pattern returns the source of the legacy pattern.
func (r IdReplacer) Pattern() string {
	return r.Old.String()
}

// TypePrefix returns the dotted type path the template produces.
func (r IdReplacer) TypePrefix() string {
	prefix, _, _ := strings.Cut(r.New, types.PrefixSep)
	return prefix
}
