// internal/migration/overrides.go
package migration

import (
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/joeyeti/datasworn/internal/typeid"
)

// LoadOverrides reads additional key renames from YAML:
//
//	starforged:
//	  oracle_collection:
//	    faction: factions   # new key: old key
//
// Packages, types and renames are returned in sorted order so generated rules
// are deterministic.
func LoadOverrides(r io.Reader, topo *typeid.Topology) ([]PackageRenames, error) {
	var raw map[string]map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode overrides: %w", err)
	}

	var out []PackageRenames
	for _, pkg := range sortedKeys(raw) {
		pr := PackageRenames{Package: pkg}
		for _, typ := range sortedKeys(raw[pkg]) {
			t, err := topo.Parse(typ)
			if err != nil {
				return nil, fmt.Errorf("overrides for %s: %w", pkg, err)
			}
			if _, ok := legacySegment(t); !ok {
				return nil, fmt.Errorf("overrides for %s: type %s has no legacy IDs", pkg, t)
			}
			tr := TypeRenames{Type: t}
			for _, newKey := range sortedKeys(raw[pkg][typ]) {
				tr.Renames = append(tr.Renames, KeyRename{New: newKey, Old: raw[pkg][typ][newKey]})
			}
			pr.Types = append(pr.Types, tr)
		}
		out = append(out, pr)
	}
	return out, nil
}

// LoadIDMap reads an explicit legacy-to-current ID map from a JSON object.
// A null value marks the legacy ID as removed.
func LoadIDMap(r io.Reader) (map[string]*string, error) {
	var m map[string]*string
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode ID map: %w", err)
	}
	return m, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
