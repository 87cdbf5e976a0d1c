// Package migration rewrites legacy Datasworn IDs, and ID references inside
// Markdown text, into the current ID grammar.
//
// Legacy IDs have no type prefix ("starforged/oracles/factions/name"). Each
// current type owns an ordered list of regular-expression rules; the first
// rule that matches produces the new ID. Rules come from three sources: a
// generic rule per type derived from its legacy root segment, per-package key
// renames (cascaded from collections to their collectables), and a handful of
// hand-written rules for irregular legacy shapes.
package migration

import (
	"github.com/joeyeti/datasworn/internal/typeid"
	"github.com/joeyeti/datasworn/internal/types"
)

// legacyType pairs a current type with the legacy path segment its IDs used.
type legacyType struct {
	typ     typeid.TypeID
	segment string
}

// legacyTypes in generation order.
var legacyTypes = []legacyType{
	{typeid.Asset, "assets"},
	{typeid.Move, "moves"},
	{typeid.AtlasEntry, "atlas"},
	{typeid.Npc, "npcs"},
	{typeid.OracleRollable, "oracles"},
	{typeid.DelveSite, "delve_sites"},
	{typeid.Truth, "truths"},
	{typeid.DelveSiteDomain, "site_domains"},
	{typeid.DelveSiteTheme, "site_themes"},
	{typeid.Rarity, "rarities"},
	{typeid.OracleCollection, "collections/oracles"},
	{typeid.NpcCollection, "collections/npcs"},
	{typeid.AssetCollection, "collections/assets"},
	{typeid.MoveCategory, "collections/moves"},
	{typeid.AtlasCollection, "collections/atlas"},
}

func legacySegment(typ typeid.TypeID) (string, bool) {
	for _, lt := range legacyTypes {
		if lt.typ == typ {
			return lt.segment, true
		}
	}
	return "", false
}

// keyCount bounds the number of path keys that follow the legacy type
// segment in a legacy ID of a given type. Recursive types nest as deep as
// current collections do, and their collectables add one key for the leaf.
type keyCount struct {
	min, max int
}

var legacyKeyCounts = map[typeid.TypeID]keyCount{
	// recursive collections
	typeid.OracleCollection: {types.CollectionDepthMin, types.CollectionDepthMax},
	typeid.AtlasCollection:  {types.CollectionDepthMin, types.CollectionDepthMax},
	typeid.NpcCollection:    {types.CollectionDepthMin, types.CollectionDepthMax},
	// recursive collectables
	typeid.OracleRollable: {types.CollectionDepthMin + 1, types.CollectionDepthMax + 1},
	typeid.AtlasEntry:     {types.CollectionDepthMin + 1, types.CollectionDepthMax + 1},
	typeid.Npc:            {types.CollectionDepthMin + 1, types.CollectionDepthMax + 1},
	// non-recursive collections and non-collectables
	typeid.AssetCollection: {1, 1},
	typeid.MoveCategory:    {1, 1},
	typeid.DelveSite:       {1, 1},
	typeid.DelveSiteDomain: {1, 1},
	typeid.DelveSiteTheme:  {1, 1},
	typeid.Rarity:          {1, 1},
	typeid.Truth:           {1, 1},
	// non-recursive collectables
	typeid.Asset: {2, 2},
	typeid.Move:  {2, 2},
}

// KeyRename maps a legacy key (possibly several keys joined by "/") to its
// current replacement.
type KeyRename struct {
	New string
	Old string
}

// PackageRenames lists the key renames of one rules package, per type.
type PackageRenames struct {
	Package string
	Types   []TypeRenames
}

// TypeRenames lists key renames for one type. Renames of a collection type
// cascade to the collection's collectables.
type TypeRenames struct {
	Type    typeid.TypeID
	Renames []KeyRename
}

// builtinRenames are the key renames between legacy and current packages.
var builtinRenames = []PackageRenames{
	{
		Package: "starforged",
		Types: []TypeRenames{{
			Type: typeid.OracleCollection,
			Renames: []KeyRename{
				{"derelict/zone", "derelicts/zones"},
				{"faction", "factions"},
				{"derelict", "derelicts"},
				{"location_theme", "location_themes"},
				{"planet", "planets"},
				{"settlement", "settlements"},
				{"starship", "starships"},
				{"precursor_vault", "vaults"},
				{"character", "characters"},
				{"creature", "creatures"},
			},
		}},
	},
}

// moveOracle describes an oracle that moved from the legacy "oracles/moves"
// collection into the move that uses it.
type moveOracle struct {
	pkg       string
	category  string
	move      string
	newOracle string // defaults to the move key
	oldOracle string // empty when the legacy oracle was keyed by the move alone
}

var askTheOracleKeys = []string{"almost_certain", "likely", "fifty_fifty", "unlikely", "small_chance"}

func builtinMoveOracles() []moveOracle {
	var out []moveOracle
	for _, pkg := range []string{"starforged", "classic"} {
		out = append(out,
			moveOracle{pkg: pkg, category: "suffer", move: "endure_harm"},
			moveOracle{pkg: pkg, category: "suffer", move: "endure_stress"},
			moveOracle{pkg: pkg, category: "fate", move: "pay_the_price"},
		)
		for _, k := range askTheOracleKeys {
			out = append(out, moveOracle{pkg: pkg, category: "fate", move: "ask_the_oracle", newOracle: k, oldOracle: k})
		}
	}
	for _, k := range []string{"edge", "wits", "shadow"} {
		out = append(out, moveOracle{pkg: "delve", category: "delve", move: "delve_the_depths", newOracle: k, oldOracle: k})
	}
	out = append(out,
		moveOracle{pkg: "delve", category: "delve", move: "find_an_opportunity"},
		moveOracle{pkg: "delve", category: "delve", move: "reveal_a_danger"},
		moveOracle{pkg: "delve", category: "delve", move: "reveal_a_danger_alt"},
		moveOracle{pkg: "delve", category: "threat", move: "advance_a_threat"},
		moveOracle{pkg: "starforged", category: "session", move: "begin_a_session"},
		moveOracle{pkg: "starforged", category: "exploration", move: "make_a_discovery"},
		moveOracle{pkg: "starforged", category: "exploration", move: "confront_chaos"},
		moveOracle{pkg: "starforged", category: "combat", move: "take_decisive_action"},
		moveOracle{pkg: "starforged", category: "suffer", move: "withstand_damage"},
	)
	return out
}

// lookupOrder is the order in which type rule lists are tried when no type
// hint is given.
var lookupOrder = []typeid.TypeID{
	typeid.OracleRollable,
	typeid.OracleCollection,
	typeid.Variant,
	typeid.Ability,
	typeid.Move,
	typeid.Asset,
	typeid.AtlasEntry,
	typeid.Npc,
	typeid.DelveSite,
	typeid.Truth,
	typeid.DelveSiteDomain,
	typeid.DelveSiteTheme,
	typeid.Rarity,
	typeid.NpcCollection,
	typeid.AssetCollection,
	typeid.MoveCategory,
	typeid.AtlasCollection,
}
