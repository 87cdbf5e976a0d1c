// internal/typeid/topology.go
package typeid

import (
	"fmt"
	"slices"
	"sync"

	"github.com/joeyeti/datasworn/internal/types"
)

/*
 * Type topology: classification and relationships of node types.
 *
 * All lookups are map or short-slice scans over tables copied at construction.
 * Nothing is mutated after NewTopology returns; Default shares one instance
 * behind a sync.Once so initialization completes before any reader sees it.
 *
 * Key functions:
 *   - NewTopology: validate static tables, derive property shapes, expand type paths
 *   - BranchKey / EmbeddedPropertyKey: property names under which types live
 *   - EmbeddableTypes: direct embed relation, narrowed for embedded parents
 *   - Property: runtime shape check used by the ID pattern builder
 */

// Topology is the immutable description of node types and their nesting.
type Topology struct {
	collectable    []TypeID
	collection     []TypeID
	nonCollectable []TypeID
	embedOnly      []TypeID
	primary        []TypeID
	all            []TypeID

	collectedBy  map[TypeID]TypeID
	collectionOf map[TypeID]TypeID
	recursive    map[TypeID]bool

	embedOrder           []TypeID
	embedTypes           map[TypeID][]TypeID
	embeddableInEmbedded map[TypeID][]TypeID

	branchKeys            map[TypeID]string
	embeddedPropertyKeys  map[TypeID]string
	embeddedPropertyKinds map[string]PropertyKind

	shapes map[TypeID]map[string]Property

	typePaths   []string
	typePathSet map[string][]TypeID
}

var (
	defaultOnce     sync.Once
	defaultTopology *Topology
)

// Default returns the shared reference topology.
// Panics if the static tables are inconsistent; that is a programming error.
func Default() *Topology {
	defaultOnce.Do(func() {
		t, err := NewTopology()
		if err != nil {
			panic(fmt.Sprintf("typeid: invalid reference topology: %v", err))
		}
		defaultTopology = t
	})
	return defaultTopology
}

// NewTopology builds the reference topology from the static tables.
// Returns an error if the tables violate a structural invariant.
func NewTopology() (*Topology, error) {
	t := &Topology{
		collectable:           slices.Clone(collectableTypes),
		collection:            slices.Clone(collectionTypes),
		nonCollectable:        slices.Clone(nonCollectableTypes),
		embedOnly:             slices.Clone(embedOnlyTypes),
		collectedBy:           make(map[TypeID]TypeID, len(collectedBy)),
		collectionOf:          make(map[TypeID]TypeID, len(collectedBy)),
		recursive:             make(map[TypeID]bool),
		embedTypes:            make(map[TypeID][]TypeID, len(embedTypes)),
		embeddableInEmbedded:  make(map[TypeID][]TypeID, len(embeddableInEmbedded)),
		branchKeys:            make(map[TypeID]string, len(branchKeys)),
		embeddedPropertyKeys:  make(map[TypeID]string, len(embeddedPropertyKeys)),
		embeddedPropertyKinds: make(map[string]PropertyKind, len(embeddedPropertyKinds)),
	}

	t.primary = slices.Concat(t.collectable, t.collection, t.nonCollectable)
	t.all = slices.Concat(t.primary, t.embedOnly)

	for coll, item := range collectedBy {
		t.collectedBy[coll] = item
		t.collectionOf[item] = coll
	}
	for _, coll := range recursiveCollections {
		t.recursive[coll] = true
		t.recursive[collectedBy[coll]] = true
	}
	for _, e := range embedTypes {
		t.embedOrder = append(t.embedOrder, e.parent)
		t.embedTypes[e.parent] = slices.Clone(e.children)
	}
	for parent, children := range embeddableInEmbedded {
		t.embeddableInEmbedded[parent] = slices.Clone(children)
	}
	for typ, key := range branchKeys {
		t.branchKeys[typ] = key
	}
	for typ, key := range embeddedPropertyKeys {
		t.embeddedPropertyKeys[typ] = key
	}
	for key, kind := range embeddedPropertyKinds {
		t.embeddedPropertyKinds[key] = kind
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	t.shapes = t.buildShapes()

	if err := t.expandTypePaths(); err != nil {
		return nil, err
	}

	return t, nil
}

// validate checks the bidirectional pairing and key totality invariants.
func (t *Topology) validate() error {
	if len(t.collectedBy) != len(t.collection) || len(t.collectionOf) != len(t.collectable) {
		return fmt.Errorf("collection/collectable pairing is not one-to-one")
	}
	for _, coll := range t.collection {
		item, ok := t.collectedBy[coll]
		if !ok || !slices.Contains(t.collectable, item) {
			return fmt.Errorf("collection %s has no collectable pair", coll)
		}
		if t.collectionOf[item] != coll {
			return fmt.Errorf("collectable %s does not pair back to %s", item, coll)
		}
	}
	for _, typ := range t.primary {
		if _, ok := t.branchKeys[typ]; !ok {
			return fmt.Errorf("primary type %s has no branch key", typ)
		}
	}
	for _, typ := range t.embedOnly {
		if _, ok := t.branchKeys[typ]; ok {
			return fmt.Errorf("embed-only type %s must not have a branch key", typ)
		}
		key, ok := t.embeddedPropertyKeys[typ]
		if !ok {
			return fmt.Errorf("embed-only type %s has no embedded property key", typ)
		}
		if _, ok := t.embeddedPropertyKinds[key]; !ok {
			return fmt.Errorf("embedded property %s has no kind", key)
		}
	}
	for parent, children := range t.embedTypes {
		if !t.Known(parent) {
			return fmt.Errorf("%w: embedding parent %s", types.ErrUnknownType, parent)
		}
		for _, child := range children {
			if !t.Known(child) {
				return fmt.Errorf("%w: embedded child %s", types.ErrUnknownType, child)
			}
		}
	}
	for parent, children := range t.embeddableInEmbedded {
		for _, child := range children {
			if !slices.Contains(t.embedTypes[parent], child) {
				return fmt.Errorf("embed of embed %s.%s is not a direct embed", parent, child)
			}
		}
	}
	return nil
}

// buildShapes derives, per owner type, the child-holding properties the
// pattern builder may compose through.
func (t *Topology) buildShapes() map[TypeID]map[string]Property {
	shapes := make(map[TypeID]map[string]Property)
	add := func(owner TypeID, p Property) {
		if shapes[owner] == nil {
			shapes[owner] = make(map[string]Property)
		}
		shapes[owner][p.Key] = p
	}

	// Collectables share their collection's branch key, so the root dictionary
	// holds collections, not collectables.
	for _, typ := range t.primary {
		if t.IsCollectable(typ) {
			continue
		}
		add(RulesPackage, Property{Key: t.branchKeys[typ], Kind: KindDictionary, Entry: typ})
	}
	for _, coll := range t.collection {
		add(coll, Property{Key: types.ContentsKey, Kind: KindDictionary, Entry: t.collectedBy[coll]})
		if t.recursive[coll] {
			add(coll, Property{Key: types.CollectionsKey, Kind: KindDictionary, Entry: coll})
		}
	}
	for parent, children := range t.embedTypes {
		for _, child := range children {
			key, _ := t.EmbeddedPropertyKey(child)
			kind, _ := t.EmbeddedPropertyKind(child)
			add(parent, Property{Key: key, Kind: kind, Entry: child})
		}
	}
	return shapes
}

// Known reports whether typ is a type in this topology.
func (t *Topology) Known(typ TypeID) bool {
	return slices.Contains(t.all, typ)
}

// Parse converts a string to a known TypeID.
func (t *Topology) Parse(s string) (TypeID, error) {
	typ := TypeID(s)
	if !t.Known(typ) {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownType, s)
	}
	return typ, nil
}

// All returns every type ID: primary types first, then embed-only types.
func (t *Topology) All() []TypeID { return slices.Clone(t.all) }

// Primary returns collectable, collection and non-collectable types.
func (t *Topology) Primary() []TypeID { return slices.Clone(t.primary) }

// EmbedOnly returns the types that only exist nested inside another node.
func (t *Topology) EmbedOnly() []TypeID { return slices.Clone(t.embedOnly) }

// IsPrimary reports whether typ has its own root dictionary on the rules package.
func (t *Topology) IsPrimary(typ TypeID) bool { return slices.Contains(t.primary, typ) }

// IsEmbedOnly reports whether typ only exists nested inside another node.
func (t *Topology) IsEmbedOnly(typ TypeID) bool { return slices.Contains(t.embedOnly, typ) }

// IsCollectable reports whether typ lives in a collection's contents.
func (t *Topology) IsCollectable(typ TypeID) bool { return slices.Contains(t.collectable, typ) }

// IsCollection reports whether typ is a collection.
func (t *Topology) IsCollection(typ TypeID) bool { return slices.Contains(t.collection, typ) }

// IsNonCollectable reports whether typ is a top-level item outside collections.
func (t *Topology) IsNonCollectable(typ TypeID) bool { return slices.Contains(t.nonCollectable, typ) }

// IsRecursive reports whether typ is a collection that nests within itself,
// or a collectable of such a collection.
func (t *Topology) IsRecursive(typ TypeID) bool { return t.recursive[typ] }

// CollectionOf returns the collection type holding collectable typ.
func (t *Topology) CollectionOf(typ TypeID) (TypeID, error) {
	coll, ok := t.collectionOf[typ]
	if !ok {
		return "", fmt.Errorf("%w: expected collectable TypeId but got %s", types.ErrUnknownType, typ)
	}
	return coll, nil
}

// CollectableOf returns the collectable type held by collection typ.
func (t *Topology) CollectableOf(typ TypeID) (TypeID, error) {
	item, ok := t.collectedBy[typ]
	if !ok {
		return "", fmt.Errorf("%w: expected collection TypeId but got %s", types.ErrUnknownType, typ)
	}
	return item, nil
}

// BranchKey returns the rules-package property holding typ's root dictionary.
// Embed-only types have no branch key.
func (t *Topology) BranchKey(typ TypeID) (string, error) {
	key, ok := t.branchKeys[typ]
	if !ok {
		return "", fmt.Errorf("%w: expected primary TypeId but got %s", types.ErrUnknownType, typ)
	}
	return key, nil
}

// EmbeddableTypes returns the types embeddable directly within parent.
// When parentIsEmbedded is true the narrower embed-of-embed relation applies.
// Returns an empty slice when nothing can be embedded.
func (t *Topology) EmbeddableTypes(parent TypeID, parentIsEmbedded bool) []TypeID {
	if parentIsEmbedded {
		return slices.Clone(t.embeddableInEmbedded[parent])
	}
	return slices.Clone(t.embedTypes[parent])
}

// CanHaveEmbed reports whether anything can be embedded in typ.
func (t *Topology) CanHaveEmbed(typ TypeID, isEmbedded bool) bool {
	return len(t.EmbeddableTypes(typ, isEmbedded)) > 0
}

// CanBeEmbedded reports whether typ can be embedded in any parent.
func (t *Topology) CanBeEmbedded(typ TypeID) bool {
	return len(t.EmbeddersOf(typ)) > 0
}

// EmbeddersOf returns the parent types that may directly embed typ.
func (t *Topology) EmbeddersOf(typ TypeID) []TypeID {
	var parents []TypeID
	for _, parent := range t.embedOrder {
		if slices.Contains(t.embedTypes[parent], typ) {
			parents = append(parents, parent)
		}
	}
	return parents
}

// EmbeddedPropertyKey returns the property holding embedded instances of typ
// inside its parent. Primary types fall back to their branch key.
func (t *Topology) EmbeddedPropertyKey(typ TypeID) (string, error) {
	if key, ok := t.embeddedPropertyKeys[typ]; ok {
		return key, nil
	}
	if key, err := t.BranchKey(typ); err == nil {
		return key, nil
	}
	return "", fmt.Errorf("%w: expected embeddable TypeId but got %s", types.ErrUnknownType, typ)
}

// EmbeddedPropertyKind returns whether embedded instances of typ are stored
// in a dictionary or an array. Primary types are always dictionaries.
func (t *Topology) EmbeddedPropertyKind(typ TypeID) (PropertyKind, error) {
	if t.IsPrimary(typ) {
		return KindDictionary, nil
	}
	key, err := t.EmbeddedPropertyKey(typ)
	if err != nil {
		return 0, err
	}
	kind, ok := t.embeddedPropertyKinds[key]
	if !ok {
		return 0, fmt.Errorf("%w: no property kind for %s", types.ErrUnknownType, key)
	}
	return kind, nil
}

// Property returns the child-holding property key of owner, if any.
// Owner may be RulesPackage.
func (t *Topology) Property(owner TypeID, key string) (Property, bool) {
	p, ok := t.shapes[owner][key]
	return p, ok
}
