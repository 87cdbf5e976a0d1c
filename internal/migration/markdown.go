// internal/migration/markdown.go
package migration

import (
	"regexp"
	"strings"
)

/*
 * Markdown reference rewriting.
 *
 * Two syntaxes carry IDs inside prose:
 *   - macros: {{text:starforged/oracles/factions/name}}
 *   - links:  [Legacy](id:starforged/oracles/factions/name/legacy)
 *
 * Only capture group 2 (the ID) is replaced; everything outside it is copied
 * byte for byte. The ID class excludes ":", so references already in the
 * current grammar never match again and rewriting is idempotent.
 */

var (
	markdownMacroPattern = regexp.MustCompile(`\{\{([a-z_]+):([a-z_/.\d]+?)\}\}`)
	markdownLinkPattern  = regexp.MustCompile(`\[(\w[^\]]*)\]\(id:([a-z_/.\d]+?)\)`)

	markdownIDPatterns = []*regexp.Regexp{markdownMacroPattern, markdownLinkPattern}
)

// UpdateIdsInMarkdown rewrites the legacy IDs referenced by macros and links
// in text, leaving all other text untouched.
func (m *Migrator) UpdateIdsInMarkdown(text string) string {
	for _, re := range markdownIDPatterns {
		text = replaceGroup(re, text, 2, func(id string) string { return m.UpdateID(id, "") })
	}
	return text
}

// MarkdownReferences returns the IDs referenced by macros and links in text.
func MarkdownReferences(text string) []string {
	var out []string
	for _, re := range markdownIDPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			out = append(out, text[loc[4]:loc[5]])
		}
	}
	return out
}

// replaceGroup replaces submatch group of every match of re in s.
func replaceGroup(re *regexp.Regexp, s string, group int, fn func(string) string) string {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[2*group], loc[2*group+1]
		b.WriteString(s[last:start])
		b.WriteString(fn(s[start:end]))
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}
