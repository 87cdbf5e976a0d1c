// internal/idpattern/pattern.go
package idpattern

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/joeyeti/datasworn/internal/typeid"
	"github.com/joeyeti/datasworn/internal/types"
)

/*
 * ID pattern builder.
 *
 * Builder workflow:
 *   1. FromRoot starts the first type group at the rules-package symbol
 *   2. AddDictKey / AddRecursiveDictKeys / AddIndex append symbols, each
 *      checked against the current node type's properties
 *   3. AddNewTypeGroup starts an embedded type group
 *   4. Build validates that the pattern ends on its last group's type
 *
 * The first failing step records an error and every later step is a no-op,
 * so a chain can be written without checking each call. Build and Err
 * report the recorded error.
 */

// IdPattern is a complete addressable ID shape: one PathFormat per type group.
type IdPattern struct {
	topo    *typeid.Topology
	formats []PathFormat
	current typeid.TypeID
	err     error
}

// FromRoot starts a pattern for primary type typ rooted at the rules package.
func FromRoot(topo *typeid.Topology, typ typeid.TypeID) *IdPattern {
	p := &IdPattern{
		topo:    topo,
		current: typeid.RulesPackage,
		formats: []PathFormat{{
			TypeID:   typ,
			Relative: true,
			Symbols: []PathSymbol{{
				Kind:    SymbolRulesPackage,
				Entry:   typeid.RulesPackage,
				MinReps: 1,
				MaxReps: 1,
			}},
		}},
	}
	if !topo.IsPrimary(typ) {
		p.err = fmt.Errorf("%w: %s is not a primary type", types.ErrInvalidComposition, typ)
	}
	return p
}

// AddDictKey appends one key of dictionary property on the current node type.
// The pattern then addresses the property's entry type.
func (p *IdPattern) AddDictKey(property string) *IdPattern {
	if p.err != nil {
		return p
	}
	prop, err := p.property(property, typeid.KindDictionary)
	if err != nil {
		p.err = err
		return p
	}
	p.appendSymbol(PathSymbol{
		Kind:     SymbolDictKey,
		Property: property,
		Origin:   p.current,
		Entry:    prop.Entry,
		MinReps:  1,
		MaxReps:  1,
	})
	p.current = prop.Entry
	return p
}

// AddRecursiveDictKeys appends a chain of keys that starts in property and
// descends through recursiveProperty, bounded by the collection depth limits.
func (p *IdPattern) AddRecursiveDictKeys(property, recursiveProperty string) *IdPattern {
	return p.AddRecursiveDictKeysRange(property, recursiveProperty, types.CollectionDepthMin, types.CollectionDepthMax)
}

// AddRecursiveDictKeysRange is AddRecursiveDictKeys with explicit bounds.
// Bounds outside CollectionDepthMin..CollectionDepthMax are rejected.
func (p *IdPattern) AddRecursiveDictKeysRange(property, recursiveProperty string, min, max int) *IdPattern {
	if p.err != nil {
		return p
	}
	if min < types.CollectionDepthMin || max > types.CollectionDepthMax || min > max {
		p.err = fmt.Errorf("%w: {%d,%d} not within {%d,%d}", types.ErrDepthBounds, min, max, types.CollectionDepthMin, types.CollectionDepthMax)
		return p
	}
	if p.last().RecursiveIndex() >= 0 {
		p.err = fmt.Errorf("%w: type group %s already has a recursive key chain", types.ErrInvalidComposition, p.last().TypeID)
		return p
	}
	prop, err := p.property(property, typeid.KindDictionary)
	if err != nil {
		p.err = err
		return p
	}
	rec, ok := p.topo.Property(prop.Entry, recursiveProperty)
	if !ok || rec.Kind != typeid.KindDictionary || rec.Entry != prop.Entry {
		p.err = fmt.Errorf("%w: %s.%s", types.ErrNoRecursiveProperty, prop.Entry, recursiveProperty)
		return p
	}
	p.appendSymbol(PathSymbol{
		Kind:              SymbolRecursiveDictKeys,
		Property:          property,
		RecursiveProperty: recursiveProperty,
		Origin:            p.current,
		Entry:             prop.Entry,
		MinReps:           min,
		MaxReps:           max,
	})
	p.current = prop.Entry
	return p
}

// AddIndex appends one index of array property on the current node type.
func (p *IdPattern) AddIndex(property string) *IdPattern {
	if p.err != nil {
		return p
	}
	prop, err := p.property(property, typeid.KindArray)
	if err != nil {
		p.err = err
		return p
	}
	p.appendSymbol(PathSymbol{
		Kind:     SymbolIndex,
		Property: property,
		Origin:   p.current,
		Entry:    prop.Entry,
		MinReps:  1,
		MaxReps:  1,
	})
	p.current = prop.Entry
	return p
}

// AddNewTypeGroup starts a type group for typ embedded in the current node.
// The embed-of-embed relation applies when the current group is itself embedded.
func (p *IdPattern) AddNewTypeGroup(typ typeid.TypeID) *IdPattern {
	if p.err != nil {
		return p
	}
	if err := p.checkComplete(); err != nil {
		p.err = err
		return p
	}
	parent := p.last().TypeID
	if !slices.Contains(p.topo.EmbeddableTypes(parent, len(p.formats) > 1), typ) {
		p.err = fmt.Errorf("%w: %s cannot embed %s here", types.ErrInvalidComposition, parent, typ)
		return p
	}
	p.formats = append(p.formats, PathFormat{TypeID: typ})
	return p
}

// Clone deep-copies the pattern. An optional type ID relabels only the last
// type group, e.g. deriving a collectable pattern from its collection's.
func (p *IdPattern) Clone(lastTypeID ...typeid.TypeID) *IdPattern {
	out := &IdPattern{
		topo:    p.topo,
		current: p.current,
		err:     p.err,
		formats: make([]PathFormat, len(p.formats)),
	}
	for i, f := range p.formats {
		typ := f.TypeID
		if len(lastTypeID) > 0 && i == len(p.formats)-1 {
			typ = lastTypeID[0]
		}
		out.formats[i] = f.clone(typ)
	}
	return out
}

// Err returns the first composition error, if any.
func (p *IdPattern) Err() error {
	return p.err
}

// Build validates the finished pattern.
func (p *IdPattern) Build() (*IdPattern, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := p.checkComplete(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkComplete verifies the last type group addresses its own type.
func (p *IdPattern) checkComplete() error {
	last := p.last()
	if len(last.Symbols) == 0 {
		return fmt.Errorf("%w: type group %s is empty", types.ErrInvalidComposition, last.TypeID)
	}
	if p.current != last.TypeID {
		return fmt.Errorf("%w: type group %s addresses %s", types.ErrInvalidComposition, last.TypeID, p.current)
	}
	return nil
}

func (p *IdPattern) property(key string, kind typeid.PropertyKind) (typeid.Property, error) {
	prop, ok := p.topo.Property(p.current, key)
	if !ok {
		return typeid.Property{}, fmt.Errorf("%w: %s has no property %q", types.ErrInvalidComposition, p.current, key)
	}
	if prop.Kind != kind {
		return typeid.Property{}, fmt.Errorf("%w: %s.%s is a %s, not a %s", types.ErrInvalidComposition, p.current, key, prop.Kind, kind)
	}
	return prop, nil
}

func (p *IdPattern) last() *PathFormat {
	return &p.formats[len(p.formats)-1]
}

func (p *IdPattern) appendSymbol(s PathSymbol) {
	last := p.last()
	last.Symbols = append(last.Symbols, s)
}

// Types returns the type ID of each type group.
func (p *IdPattern) Types() []typeid.TypeID {
	out := make([]typeid.TypeID, len(p.formats))
	for i, f := range p.formats {
		out[i] = f.TypeID
	}
	return out
}

// TypePath returns the dotted type path, e.g. "asset.ability".
func (p *IdPattern) TypePath() string {
	parts := make([]string, len(p.formats))
	for i, f := range p.formats {
		parts[i] = string(f.TypeID)
	}
	return strings.Join(parts, types.TypeSep)
}

// Formats returns a copy of the type groups.
func (p *IdPattern) Formats() []PathFormat {
	out := make([]PathFormat, len(p.formats))
	for i, f := range p.formats {
		out[i] = f.clone(f.TypeID)
	}
	return out
}

// LeftSide renders the type prefix as a regular expression.
func (p *IdPattern) LeftSide() string {
	parts := make([]string, len(p.formats))
	for i, f := range p.formats {
		parts[i] = regexp.QuoteMeta(string(f.TypeID))
	}
	return strings.Join(parts, typeSep)
}

// RightSide renders the path as a regular expression.
func (p *IdPattern) RightSide(mode Mode, groups GroupStyle) string {
	parts := make([]string, len(p.formats))
	for i, f := range p.formats {
		parts[i] = f.Source(mode, groups)
	}
	return strings.Join(parts, typeSep)
}

// Source renders the complete ID as a regular expression. Anchored sources
// validate a whole string; unanchored ones extract IDs from longer text.
func (p *IdPattern) Source(anchored bool, mode Mode, groups GroupStyle) string {
	src := p.LeftSide() + types.PrefixSep + p.RightSide(mode, groups)
	if anchored {
		return `^` + src + `$`
	}
	return src
}

// ToRegex compiles Source.
func (p *IdPattern) ToRegex(anchored bool, mode Mode, groups GroupStyle) (*regexp.Regexp, error) {
	return regexp.Compile(p.Source(anchored, mode, groups))
}

// WildcardID renders the ID matching every node of this pattern's type path
// in package pkg, e.g. "oracle_rollable:classic/**/*". An empty pkg matches
// every package.
func (p *IdPattern) WildcardID(pkg string) string {
	if pkg == "" {
		pkg = types.WildcardString
	}
	groups := make([][]string, len(p.formats))
	for i, f := range p.formats {
		groups[i] = f.wildcardSegments(pkg)
	}
	return p.render(groups)
}

// Format renders a concrete ID from the path elements of each type group.
func (p *IdPattern) Format(groups [][]string) (string, error) {
	if len(groups) != len(p.formats) {
		return "", fmt.Errorf("%w: %s has %d type groups, got %d", types.ErrInvalidIDShape, p.TypePath(), len(p.formats), len(groups))
	}
	for i, g := range groups {
		if len(g) == 0 {
			return "", fmt.Errorf("%w: type group %s is empty", types.ErrInvalidIDShape, p.formats[i].TypeID)
		}
	}
	return p.render(groups), nil
}

func (p *IdPattern) render(groups [][]string) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = strings.Join(g, types.PathKeySep)
	}
	return p.TypePath() + types.PrefixSep + strings.Join(parts, types.TypeSep)
}
