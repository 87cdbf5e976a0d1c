// internal/migration/generate.go
package migration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joeyeti/datasworn/internal/typeid"
	"github.com/joeyeti/datasworn/internal/types"
)

/*
 * Rule generation.
 *
 * Generation workflow:
 *   1. hand-written rules for irregular legacy shapes
 *   2. per type: key renames of that type, then renames of its collection
 *      cascaded to the collectable, then the generic catch-all rule
 *   3. priority sort of every type's list
 *   4. cross-check of rule types and template prefixes against the topology
 *
 * A legacy path key is one of [a-z_*\d]+ without "/", so the repetition
 * bounds of a pattern count keys exactly.
 */

// ReplacementMap holds the ordered rules of each type.
type ReplacementMap map[typeid.TypeID][]IdReplacer

const (
	legacyPackageGroup = `(\*|[a-z][a-z0-9_]{3,})`
	legacyKey          = `[a-z_*\d]+`
	legacyDictKey      = `(?:\*|[a-z][a-z_]*)`
)

// BuildReplacementMap generates, orders and checks the rules of every type.
// Renames are applied in the order given.
func BuildReplacementMap(topo *typeid.Topology, renames []PackageRenames) (ReplacementMap, error) {
	m := make(ReplacementMap)

	if err := m.addHandRules(); err != nil {
		return nil, err
	}

	for _, lt := range legacyTypes {
		rs, err := renameRules(topo, lt, renames)
		if err != nil {
			return nil, err
		}
		m[lt.typ] = append(m[lt.typ], rs...)

		kc := legacyKeyCounts[lt.typ]
		generic, err := newReplacer(
			fmt.Sprintf(`^%s/%s((?:/%s){%d,%d})$`, legacyPackageGroup, lt.segment, legacyKey, kc.min, kc.max),
			fmt.Sprintf(`%s%s${1}${2}`, lt.typ, types.PrefixSep),
			OriginGeneric,
		)
		if err != nil {
			return nil, err
		}
		m[lt.typ] = append(m[lt.typ], generic)
	}

	for _, rs := range m {
		sortReplacers(rs)
	}

	if err := m.Validate(topo); err != nil {
		return nil, err
	}
	return m, nil
}

func (m ReplacementMap) addHandRules() error {
	add := func(typ typeid.TypeID, pattern, template string) error {
		r, err := newReplacer(pattern, template, OriginHand)
		if err != nil {
			return err
		}
		m[typ] = append(m[typ], r)
		return nil
	}

	if err := add(typeid.OracleRollable,
		`^starforged/oracles/characters/name/given$`,
		`oracle_rollable:starforged/character/name/given_name`); err != nil {
		return err
	}
	for _, mo := range builtinMoveOracles() {
		if err := add(typeid.OracleRollable, mo.pattern(), mo.template()); err != nil {
			return err
		}
	}

	removed, err := removedReplacer(`^` + legacyPackageGroup + `/collections/oracles/moves(/` + legacyDictKey + fmt.Sprintf(`){0,%d}$`, types.CollectionDepthMax-1))
	if err != nil {
		return err
	}
	m[typeid.OracleCollection] = append(m[typeid.OracleCollection], removed)

	if err := add(typeid.Variant,
		`^`+legacyPackageGroup+`/npcs((?:/`+legacyDictKey+`){2,4})/variants/(\*|[a-z][a-z_]*)$`,
		`npc.variant:${1}${2}.${3}`); err != nil {
		return err
	}
	if err := add(typeid.Ability,
		`^`+legacyPackageGroup+`/assets/(`+legacyDictKey+`/`+legacyDictKey+`)/abilities/(\*|\d+)$`,
		`asset.ability:${1}/${2}.${3}`); err != nil {
		return err
	}
	return add(typeid.Move,
		`^`+legacyPackageGroup+`/assets/(`+legacyDictKey+`/`+legacyDictKey+`)/abilities/(\*|\d+)/moves/(\*|[a-z][a-z_]*)$`,
		`asset.ability.move:${1}/${2}.${3}.${4}`)
}

func (mo moveOracle) pattern() string {
	var b strings.Builder
	b.WriteString(`^`)
	b.WriteString(regexp.QuoteMeta(mo.pkg))
	b.WriteString(`/oracles/moves/`)
	b.WriteString(regexp.QuoteMeta(mo.move))
	if mo.oldOracle != "" {
		b.WriteString(`/` + regexp.QuoteMeta(mo.oldOracle))
	}
	b.WriteString(`$`)
	return b.String()
}

func (mo moveOracle) template() string {
	oracle := mo.newOracle
	if oracle == "" {
		oracle = mo.move
	}
	movePath := strings.Join([]string{mo.pkg, mo.category, mo.move}, types.PathKeySep)
	return "move.oracle_rollable" + types.PrefixSep + movePath + types.TypeSep + oracle
}

// renameRules generates the key-rename rules of one type. Renames of the
// type itself allow fewer trailing keys than renames cascaded from its
// collection, since a collectable always has its own key after the
// collection's.
func renameRules(topo *typeid.Topology, lt legacyType, renames []PackageRenames) ([]IdReplacer, error) {
	kc := legacyKeyCounts[lt.typ]

	coll, err := topo.CollectionOf(lt.typ)
	hasCollection := err == nil

	var out []IdReplacer
	for _, pkg := range renames {
		for _, tr := range pkg.Types {
			var cascade bool
			switch {
			case tr.Type == lt.typ:
			case hasCollection && tr.Type == coll:
				cascade = true
			default:
				continue
			}
			for _, kr := range tr.Renames {
				extra := strings.Count(kr.Old, types.PathKeySep)
				lo := max(0, kc.min-extra-1)
				hi := max(0, kc.max-extra-1)
				if cascade {
					lo = max(1, lo)
					hi = max(lo, hi)
				}
				r, err := newReplacer(
					fmt.Sprintf(`^%s/%s/%s((?:/%s){%d,%d})$`,
						regexp.QuoteMeta(pkg.Package), lt.segment, regexp.QuoteMeta(kr.Old), legacyKey, lo, hi),
					fmt.Sprintf(`%s%s%s/%s${1}`, lt.typ, types.PrefixSep, pkg.Package, kr.New),
					OriginRename,
				)
				if err != nil {
					return nil, err
				}
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// Validate checks that every rule belongs to a known type and every template
// produces a known dotted type path.
func (m ReplacementMap) Validate(topo *typeid.Topology) error {
	for typ, rs := range m {
		if !topo.Known(typ) {
			return fmt.Errorf("%w: replacement rules for %s", types.ErrUnknownType, typ)
		}
		for _, r := range rs {
			if r.Removed {
				continue
			}
			if prefix := r.TypePrefix(); !topo.IsTypePath(prefix) {
				return fmt.Errorf("%w: %s produces unknown type path %q", types.ErrInvalidReplacer, r.Pattern(), prefix)
			}
		}
	}
	return nil
}
