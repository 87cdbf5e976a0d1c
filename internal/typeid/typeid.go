// Package typeid describes the node types of the Datasworn content tree and
// how they nest inside one another.
//
// A Topology answers classification and relationship questions about type IDs
// (collectable or collection, which property holds embedded children, where a
// type's dictionary lives on the rules package) and precomputes every dotted
// type path that can prefix an ID. It is built once by NewTopology and never
// mutated afterwards, so it is safe for concurrent readers.
package typeid

// TypeID names a kind of content node. It is the left side of an ID, or one
// element of a dotted type path.
type TypeID string

// RulesPackage is the pseudo-type of the tree root. It never appears in an ID
// prefix but owns the branch dictionaries.
const RulesPackage TypeID = "rules_package"

// Collectable types live in a collection's contents.
const (
	AtlasEntry     TypeID = "atlas_entry"
	Npc            TypeID = "npc"
	OracleRollable TypeID = "oracle_rollable"
	Asset          TypeID = "asset"
	Move           TypeID = "move"
)

// Collection types hold collectables and, when recursive, child collections.
const (
	AtlasCollection  TypeID = "atlas_collection"
	NpcCollection    TypeID = "npc_collection"
	OracleCollection TypeID = "oracle_collection"
	AssetCollection  TypeID = "asset_collection"
	MoveCategory     TypeID = "move_category"
)

// NonCollectable types are top-level items outside any collection.
const (
	DelveSite       TypeID = "delve_site"
	DelveSiteDomain TypeID = "delve_site_domain"
	DelveSiteTheme  TypeID = "delve_site_theme"
	Rarity          TypeID = "rarity"
	Truth           TypeID = "truth"
)

// EmbedOnly types exist only nested inside another node.
const (
	Ability TypeID = "ability"
	Option  TypeID = "option"
	Row     TypeID = "row"
	Feature TypeID = "feature"
	Danger  TypeID = "danger"
	Denizen TypeID = "denizen"
	Variant TypeID = "variant"
)

// PropertyKind is the container shape of a property holding child nodes.
type PropertyKind int

const (
	// KindDictionary properties are keyed by lowercase identifiers.
	KindDictionary PropertyKind = iota
	// KindArray properties are addressed by index.
	KindArray
)

func (k PropertyKind) String() string {
	if k == KindArray {
		return "array"
	}
	return "dictionary"
}

// Property describes a child-holding property of a node type.
type Property struct {
	Key   string
	Kind  PropertyKind
	Entry TypeID // type of each child
}

// Static topology tables. NewTopology copies these into an immutable Topology
// and validates their consistency.
var (
	collectableTypes = []TypeID{AtlasEntry, Npc, OracleRollable, Asset, Move}

	collectionTypes = []TypeID{AtlasCollection, NpcCollection, OracleCollection, AssetCollection, MoveCategory}

	nonCollectableTypes = []TypeID{DelveSite, DelveSiteDomain, DelveSiteTheme, Rarity, Truth}

	embedOnlyTypes = []TypeID{Ability, Option, Row, Feature, Danger, Denizen, Variant}

	// collection -> collectable
	collectedBy = map[TypeID]TypeID{
		AssetCollection:  Asset,
		MoveCategory:     Move,
		AtlasCollection:  AtlasEntry,
		NpcCollection:    Npc,
		OracleCollection: OracleRollable,
	}

	recursiveCollections = []TypeID{OracleCollection, NpcCollection, AtlasCollection}

	embedTypes = []embedEntry{
		{Asset, []TypeID{Ability}},
		{Ability, []TypeID{Move, OracleRollable}},
		{Truth, []TypeID{Option}},
		{Option, []TypeID{OracleRollable}},
		{Move, []TypeID{OracleRollable}},
		{OracleRollable, []TypeID{Row}},
		{DelveSite, []TypeID{Denizen}},
		{DelveSiteDomain, []TypeID{Feature, Danger}},
		{DelveSiteTheme, []TypeID{Feature, Danger}},
		{Npc, []TypeID{Variant}},
	}

	// embeds allowed when the parent is itself embedded
	embeddableInEmbedded = map[TypeID][]TypeID{
		Ability:        {OracleRollable, Move},
		Move:           {},
		Option:         {OracleRollable},
		OracleRollable: {Row},
	}

	branchKeys = map[TypeID]string{
		AssetCollection:  "assets",
		Asset:            "assets",
		MoveCategory:     "moves",
		Move:             "moves",
		AtlasCollection:  "atlas",
		AtlasEntry:       "atlas",
		NpcCollection:    "npcs",
		Npc:              "npcs",
		OracleCollection: "oracles",
		OracleRollable:   "oracles",
		DelveSite:        "delve_sites",
		Truth:            "truths",
		DelveSiteDomain:  "site_domains",
		DelveSiteTheme:   "site_themes",
		Rarity:           "rarities",
	}

	embeddedPropertyKeys = map[TypeID]string{
		Ability: "abilities",
		Option:  "options",
		Row:     "rows",
		Feature: "features",
		Danger:  "dangers",
		Denizen: "denizens",
		Variant: "variants",
	}

	// Types without a required name to derive a key from are stored in arrays.
	embeddedPropertyKinds = map[string]PropertyKind{
		"abilities": KindArray,
		"dangers":   KindArray,
		"denizens":  KindArray,
		"features":  KindArray,
		"options":   KindArray,
		"rows":      KindArray,
		"variants":  KindDictionary,
	}
)

type embedEntry struct {
	parent   TypeID
	children []TypeID
}
