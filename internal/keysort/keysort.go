// Package keysort orders the object keys of Datasworn JSON canonically, so
// that serialized content diffs cleanly between versions.
package keysort

import (
	"sort"
	"strings"

	"github.com/joeyeti/datasworn/internal/idpattern"
)

// keyOrder lists the known keys in canonical order. Keys that appear in
// several groups keep their first position.
var keyOrder = []string{
	// identity
	"_id", "_key", "_index",
	"datasworn_version", "type", "ruleset", "title", "name", "canonical_name", "label",
	// discriminators
	"category", "field_type", "roll_type", "choice_type", "oracle_type", "value_type", "using",
	// source metadata
	"email", "authors", "date", "license", "page", "url",
	// rules
	"rules",
	"condition_meters", "stats", "impacts", "special_tracks",
	"rollable", "prevents_recovery", "permanent", "optional", "control", "option",
	"condition_meter", "stat", "tracks", "conditions", "recover", "suffer", "choices", "xp_cost",
	// relationships
	"replaces", "enhances", "oracle", "asset", "region", "theme", "domain", "name_oracle", "npc", "extra_card",
	// numeric
	"min", "max", "value", "rank",
	"nature", "color", "icon", "images", "track", "dice", "enabled", "frequency", "options", "count_as_impact",
	// usage
	"auto", "duplicates", "number_of_rolls", "by", "method", "roll_options", "ally", "player", "is_impact", "disables_asset",
	"shared", "attachments", "trigger", "roll",
	// short descriptions
	"result", "summary", "detail", "requirement", "features", "dangers", "drives", "tactics",
	"strong_hit", "weak_hit", "miss", "variants",
	// long descriptions
	"text", "text2", "text3", "description", "your_character",
	"abilities", "template", "rolls", "contents", "collections", "outcomes", "quest_starter", "your_truth", "controls",
	"embed_table", "match", "recommended_rolls",
	"oracles", "suggestions", "enhance_asset", "oracle_rolls", "tags",
	"_comment",
	"column_labels",
	// long arrays
	"denizens", "enhance_moves", "rows", "table",
	// rules package branches
	"assets", "atlas", "moves", "npcs", "rarities", "delve_sites", "site_domains", "site_themes", "truths",
	"_source", "_i18n",
}

var keyIndex = func() map[string]int {
	m := make(map[string]int, len(keyOrder))
	for i, k := range keyOrder {
		if _, ok := m[k]; !ok {
			m[k] = i
		}
	}
	return m
}()

// unsortedDicts are properties whose values are dictionaries keyed by content
// keys rather than schema keys; their entries stay in alphabetical order.
var unsortedDicts = map[string]bool{
	"options":     true,
	"controls":    true,
	"contents":    true,
	"collections": true,
	"oracles":     true,
	"assets":      true,
	"moves":       true,
	"variants":    true,
}

// KeyOrder returns the known keys in canonical order.
func KeyOrder() []string {
	return append([]string(nil), keyOrder...)
}

// Index returns the canonical position of key, or -1 for unknown keys.
func Index(key string) int {
	if i, ok := keyIndex[key]; ok {
		return i
	}
	return -1
}

// Compare orders known keys by canonical position and unknown keys after
// them. Keys at the same position compare alphabetically.
func Compare(a, b string) int {
	ia, ib := Index(a), Index(b)
	switch {
	case ia == ib:
		return strings.Compare(a, b)
	case ia == -1:
		return 1
	case ib == -1:
		return -1
	default:
		return ia - ib
	}
}

// SortKeys sorts keys canonically in place.
func SortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool { return Compare(keys[i], keys[j]) < 0 })
}

// Unknown returns the keys of obj that have no canonical position, sorted.
func Unknown(obj map[string]any) []string {
	var out []string
	for k := range obj {
		if Index(k) == -1 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// orderedKeys returns the keys of obj in output order. Dictionaries of ID
// nodes and the unsorted properties stay alphabetical.
func orderedKeys(parentKey string, obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	if unsortedDicts[parentKey] || isDictOfIDNodes(obj) {
		sort.Strings(keys)
		return keys
	}
	SortKeys(keys)
	return keys
}

func isDictOfIDNodes(obj map[string]any) bool {
	if len(obj) == 0 {
		return false
	}
	for k, v := range obj {
		if !idpattern.DictKey.MatchString(k) {
			return false
		}
		node, ok := v.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := node["_id"].(string); !ok {
			return false
		}
	}
	return true
}
