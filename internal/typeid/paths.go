// internal/typeid/paths.go
package typeid

import (
	"fmt"
	"slices"
	"strings"

	"github.com/joeyeti/datasworn/internal/types"
)

// maxTypePathLength caps embed expansion. The embed relation is acyclic, so a
// path longer than the number of types means the tables contain a cycle.
const maxTypePathLength = 8

// expandTypePaths computes every dotted type path: each primary type, then the
// embedded expansions reachable from it. Embedded parents only continue into
// children allowed by the embed-of-embed relation.
func (t *Topology) expandTypePaths() error {
	t.typePathSet = make(map[string][]TypeID)
	add := func(path []TypeID) {
		parts := make([]string, len(path))
		for i, typ := range path {
			parts[i] = string(typ)
		}
		key := strings.Join(parts, types.TypeSep)
		if _, ok := t.typePathSet[key]; ok {
			return
		}
		t.typePaths = append(t.typePaths, key)
		t.typePathSet[key] = slices.Clone(path)
	}

	for _, typ := range t.primary {
		add([]TypeID{typ})
	}

	var expand func(path []TypeID) error
	expand = func(path []TypeID) error {
		if len(path) > maxTypePathLength {
			return fmt.Errorf("embed relation does not terminate at %v", path)
		}
		last := path[len(path)-1]
		embedded := len(path) > 1
		for _, child := range t.embedTypes[last] {
			if embedded && !slices.Contains(t.embeddableInEmbedded[last], child) {
				continue
			}
			next := append(slices.Clone(path), child)
			add(next)
			if err := expand(next); err != nil {
				return err
			}
		}
		return nil
	}

	for _, typ := range t.primary {
		if err := expand([]TypeID{typ}); err != nil {
			return err
		}
	}
	return nil
}

// TypePaths returns every valid dotted type path, e.g. "asset.ability.move".
func (t *Topology) TypePaths() []string {
	return slices.Clone(t.typePaths)
}

// IsTypePath reports whether s is a valid dotted type path.
func (t *Topology) IsTypePath(s string) bool {
	_, ok := t.typePathSet[s]
	return ok
}

// SplitTypePath returns the type IDs of a dotted type path.
func (t *Topology) SplitTypePath(s string) ([]TypeID, error) {
	path, ok := t.typePathSet[s]
	if !ok {
		return nil, fmt.Errorf("%w: type path %q", types.ErrUnknownType, s)
	}
	return slices.Clone(path), nil
}
