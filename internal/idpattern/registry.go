// internal/idpattern/registry.go
package idpattern

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/joeyeti/datasworn/internal/typeid"
	"github.com/joeyeti/datasworn/internal/types"
)

// Registry holds the canonical pattern of every dotted type path together
// with precompiled matchers for the path side of each.
type Registry struct {
	topo     *typeid.Topology
	patterns map[string]*IdPattern
	exact    map[string]*regexp.Regexp
	wildcard map[string]*regexp.Regexp
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// Default returns the registry for the reference topology.
// Panics if any canonical pattern fails to build; that is a programming error.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		r, err := NewRegistry(typeid.Default())
		if err != nil {
			panic(fmt.Sprintf("idpattern: invalid reference patterns: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// NewRegistry composes the canonical pattern of every type path in topo.
// Patterns for embedded type paths extend the pattern of their parent path.
func NewRegistry(topo *typeid.Topology) (*Registry, error) {
	r := &Registry{
		topo:     topo,
		patterns: make(map[string]*IdPattern),
		exact:    make(map[string]*regexp.Regexp),
		wildcard: make(map[string]*regexp.Regexp),
	}

	for _, path := range topo.TypePaths() {
		p, err := r.build(path)
		if err != nil {
			return nil, fmt.Errorf("type path %s: %w", path, err)
		}
		if r.exact[path], err = regexp.Compile(`^` + p.RightSide(Exact, GroupNamed) + `$`); err != nil {
			return nil, fmt.Errorf("type path %s: %w", path, err)
		}
		if r.wildcard[path], err = regexp.Compile(`^` + p.RightSide(Wildcard, GroupNamed) + `$`); err != nil {
			return nil, fmt.Errorf("type path %s: %w", path, err)
		}
	}
	return r, nil
}

// build returns the memoized pattern for path, composing its prefix first.
func (r *Registry) build(path string) (*IdPattern, error) {
	if p, ok := r.patterns[path]; ok {
		return p, nil
	}
	typs, err := r.topo.SplitTypePath(path)
	if err != nil {
		return nil, err
	}

	var p *IdPattern
	if len(typs) == 1 {
		p, err = r.primary(typs[0])
	} else {
		p, err = r.embedded(typs)
	}
	if err != nil {
		return nil, err
	}
	r.patterns[path] = p
	return p, nil
}

func (r *Registry) primary(typ typeid.TypeID) (*IdPattern, error) {
	switch {
	case r.topo.IsCollectable(typ):
		coll, err := r.topo.CollectionOf(typ)
		if err != nil {
			return nil, err
		}
		parent, err := r.build(string(coll))
		if err != nil {
			return nil, err
		}
		return parent.Clone(typ).AddDictKey(types.ContentsKey).Build()

	case r.topo.IsCollection(typ):
		branch, err := r.topo.BranchKey(typ)
		if err != nil {
			return nil, err
		}
		if r.topo.IsRecursive(typ) {
			return FromRoot(r.topo, typ).AddRecursiveDictKeys(branch, types.CollectionsKey).Build()
		}
		return FromRoot(r.topo, typ).AddDictKey(branch).Build()

	default:
		branch, err := r.topo.BranchKey(typ)
		if err != nil {
			return nil, err
		}
		return FromRoot(r.topo, typ).AddDictKey(branch).Build()
	}
}

func (r *Registry) embedded(typs []typeid.TypeID) (*IdPattern, error) {
	parentPath := ""
	for i, typ := range typs[:len(typs)-1] {
		if i > 0 {
			parentPath += types.TypeSep
		}
		parentPath += string(typ)
	}
	parent, err := r.build(parentPath)
	if err != nil {
		return nil, err
	}

	child := typs[len(typs)-1]
	key, err := r.topo.EmbeddedPropertyKey(child)
	if err != nil {
		return nil, err
	}
	kind, err := r.topo.EmbeddedPropertyKind(child)
	if err != nil {
		return nil, err
	}

	p := parent.Clone().AddNewTypeGroup(child)
	if kind == typeid.KindArray {
		return p.AddIndex(key).Build()
	}
	return p.AddDictKey(key).Build()
}

// Topology returns the topology the registry was built from.
func (r *Registry) Topology() *typeid.Topology {
	return r.topo
}

// TypePaths returns every registered dotted type path.
func (r *Registry) TypePaths() []string {
	return r.topo.TypePaths()
}

// Pattern returns a copy of the canonical pattern for typePath, safe to extend.
func (r *Registry) Pattern(typePath string) (*IdPattern, error) {
	p, ok := r.patterns[typePath]
	if !ok {
		return nil, fmt.Errorf("%w: type path %q", types.ErrUnknownType, typePath)
	}
	return p.Clone(), nil
}

// Matcher returns the anchored matcher for the path side of typePath. Each
// type group is captured under a group named after its type ID.
func (r *Registry) Matcher(typePath string, mode Mode) (*regexp.Regexp, error) {
	m := r.exact
	if mode == Wildcard {
		m = r.wildcard
	}
	re, ok := m[typePath]
	if !ok {
		return nil, fmt.Errorf("%w: type path %q", types.ErrUnknownType, typePath)
	}
	return re, nil
}
