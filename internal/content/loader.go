// Package content loads Datasworn rules-package JSON files into a tree that
// IDs can be resolved against.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/goccy/go-json"

	"github.com/joeyeti/datasworn/internal/idparser"
	"github.com/joeyeti/datasworn/internal/idpattern"
	"github.com/joeyeti/datasworn/internal/types"
)

// DefaultPattern selects every JSON file below the content directory.
const DefaultPattern = "**/*.json"

// Content is a set of loaded rules packages. Read-only after Load.
type Content struct {
	Tree  idparser.Tree
	files map[string]string     // package ID -> source file
	index map[string]types.Node // node ID -> node
}

// Load decodes every file below dir matching the doublestar pattern. Each file
// holds one rules package keyed by its _id.
// Returns ErrAmbiguousResolution when two packages or two nodes share an ID.
func Load(dir, pattern string) (*Content, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	files, err := doublestar.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid content pattern %q: %w", pattern, err)
	}
	sort.Strings(files)

	c := &Content{
		Tree:  make(idparser.Tree),
		files: make(map[string]string),
		index: make(map[string]types.Node),
	}
	for _, file := range files {
		if err := c.loadFile(file); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Content) loadFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	var root types.Node
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to decode %s: %w", file, err)
	}
	return c.Add(file, root)
}

// Add registers a decoded rules package. source names it in errors.
func (c *Content) Add(source string, root types.Node) error {
	pkg, _ := root[types.IDKey].(string)
	if pkg == "" {
		return fmt.Errorf("%w: %s has no package %s", types.ErrInvalidIDShape, source, types.IDKey)
	}
	if !idpattern.RulesPackageID.MatchString(pkg) {
		return fmt.Errorf("%w: %s declares package %q", types.ErrInvalidIDShape, source, pkg)
	}
	if prev, ok := c.files[pkg]; ok {
		return fmt.Errorf("%w: package %s in both %s and %s", types.ErrAmbiguousResolution, pkg, prev, source)
	}
	c.files[pkg] = source
	c.Tree[pkg] = root
	return indexNodes(c.index, root)
}

// indexNodes records every nested node whose _id addresses a path.
func indexNodes(index map[string]types.Node, v any) error {
	switch t := v.(type) {
	case map[string]any:
		if id, ok := t[types.IDKey].(string); ok && strings.Contains(id, types.PathKeySep) {
			if _, dup := index[id]; dup {
				return fmt.Errorf("%w: duplicate node %s", types.ErrAmbiguousResolution, id)
			}
			index[id] = t
		}
		for _, child := range t {
			if err := indexNodes(index, child); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range t {
			if err := indexNodes(index, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// Packages returns the loaded package IDs, sorted.
func (c *Content) Packages() []string {
	out := make([]string, 0, len(c.files))
	for pkg := range c.files {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

// Source returns the file a package was loaded from.
func (c *Content) Source(pkg string) (string, bool) {
	f, ok := c.files[pkg]
	return f, ok
}

// Lookup returns the node declaring id.
func (c *Content) Lookup(id string) (types.Node, bool) {
	n, ok := c.index[id]
	return n, ok
}

// IDs returns every indexed node ID, sorted.
func (c *Content) IDs() []string {
	out := make([]string, 0, len(c.index))
	for id := range c.index {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Problem is an indexed ID that does not resolve back to its own node.
type Problem struct {
	ID  string
	Err error
}

var errWrongNode = errors.New("resolves to a different node")

// Verify resolves every indexed ID through p and reports the IDs that fail
// to parse, fail to resolve, or resolve to a node other than the one that
// declares them.
func (c *Content) Verify(p *idparser.Parser) []Problem {
	var problems []Problem
	for _, id := range c.IDs() {
		m, err := p.Get(c.Tree, id)
		if err != nil {
			problems = append(problems, Problem{ID: id, Err: err})
			continue
		}
		if !sameNode(m.Node, c.index[id]) {
			problems = append(problems, Problem{ID: id, Err: fmt.Errorf("%w: %s", errWrongNode, m.ID)})
		}
	}
	return problems
}

// sameNode reports whether a and b are the same decoded map.
func sameNode(a, b types.Node) bool {
	return a != nil && b != nil && reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}
