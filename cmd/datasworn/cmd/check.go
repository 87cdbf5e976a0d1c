package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joeyeti/datasworn/internal/keysort"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every ID in the content resolves to its own node",
	Long: `Resolves every "_id" declared under --content-dir and reports IDs that do
not parse, do not resolve, or resolve to another node. With --keys, also
reports object keys outside the canonical key order.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("keys", false, "also report unknown object keys")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	parser, err := newParser(cfg)
	if err != nil {
		return err
	}
	c, err := loadContent(cfg)
	if err != nil {
		return err
	}

	problems := c.Verify(parser)
	for _, p := range problems {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", p.ID, p.Err)
	}

	if keys, _ := cmd.Flags().GetBool("keys"); keys {
		unknown := map[string]bool{}
		for _, pkg := range c.Packages() {
			collectUnknownKeys(c.Tree[pkg], unknown)
		}
		names := make([]string, 0, len(unknown))
		for k := range unknown {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "unknown key: %s\n", k)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d of %d IDs failed verification", len(problems), len(c.IDs()))
	}
	return nil
}

// collectUnknownKeys records non-canonical keys of schema objects. Content
// dictionaries are keyed by content keys and skipped, but their values are
// still visited.
func collectUnknownKeys(v any, out map[string]bool) {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t["_id"]; ok {
			for _, k := range keysort.Unknown(t) {
				if !isContentDictKey(k, t[k]) {
					out[k] = true
				}
			}
		}
		for _, child := range t {
			collectUnknownKeys(child, out)
		}
	case []any:
		for _, child := range t {
			collectUnknownKeys(child, out)
		}
	}
}

// isContentDictKey reports whether k holds a node declaring its own ID, as
// packages do for their top-level branches.
func isContentDictKey(k string, v any) bool {
	node, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = node["_id"]
	return ok
}
