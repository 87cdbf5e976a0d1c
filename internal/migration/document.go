// internal/migration/document.go
package migration

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/joeyeti/datasworn/internal/keysort"
	"github.com/joeyeti/datasworn/internal/types"
)

// legacyLike matches strings shaped like a legacy ID: a package key or "*"
// followed by slash-separated keys, with no type prefix.
var legacyLike = regexp.MustCompile(`^(?:\*|[a-z][a-z0-9_]{2,})(?:/[a-z_*\d]+)+$`)

// Stats summarizes a document migration.
type Stats struct {
	Strings    int      // string values visited
	Migrated   int      // IDs and references rewritten
	Removed    int      // legacy IDs whose rule marks them removed
	Unmigrated []string // legacy-looking IDs no rule matched, sorted and unique
}

// UpdateDocument migrates every string value of the JSON document read from
// r and writes it to w with canonical key order. Numbers are preserved as
// written.
func (m *Migrator) UpdateDocument(r io.Reader, w io.Writer) (Stats, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Stats{}, fmt.Errorf("failed to decode document: %w", err)
	}

	st := &docStats{unmigrated: map[string]struct{}{}}
	doc = m.walk("", doc, st)

	out, err := keysort.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Stats{}, fmt.Errorf("failed to encode document: %w", err)
	}
	if _, err := w.Write(append(out, '\n')); err != nil {
		return Stats{}, fmt.Errorf("failed to write document: %w", err)
	}

	stats := st.Stats
	for id := range st.unmigrated {
		stats.Unmigrated = append(stats.Unmigrated, id)
	}
	sort.Strings(stats.Unmigrated)
	for _, id := range stats.Unmigrated {
		m.logger.Warn("no migration for legacy ID", "id", id)
	}
	return stats, nil
}

type docStats struct {
	Stats
	unmigrated map[string]struct{}
}

func (m *Migrator) walk(key string, v any, st *docStats) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = m.walk(k, child, st)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = m.walk(key, child, st)
		}
		return t
	case string:
		st.Strings++
		return m.migrateString(key, t, st)
	default:
		return v
	}
}

func (m *Migrator) migrateString(key, s string, st *docStats) string {
	if !strings.Contains(s, types.PathKeySep) {
		return s
	}
	if IsMarkdown(s) {
		for _, ref := range MarkdownReferences(s) {
			m.countID(ref, st)
		}
		return m.UpdateIdsInMarkdown(s)
	}
	if !legacyLike.MatchString(s) {
		return s
	}
	m.countID(s, st)
	out, _ := m.UpdateIdsInString(key, s).(string)
	return out
}

func (m *Migrator) countID(id string, st *docStats) {
	if strings.Contains(id, types.PrefixSep) {
		return
	}
	res, err := m.Lookup(id, "")
	switch {
	case err != nil:
		st.unmigrated[id] = struct{}{}
	case res.Removed:
		st.Removed++
	default:
		st.Migrated++
		m.logger.Debug("migrated ID", "old", id, "new", res.NewID)
	}
}
