package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joeyeti/datasworn/internal/keysort"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve ID...",
	Short: "Print the content nodes addressed by IDs",
	Long: `Resolves each ID against the rules packages under --content-dir.
Wildcard IDs print every node they match.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
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

	out := []any{}
	for _, id := range args {
		matches, err := parser.Resolve(c.Tree, id)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", id, err)
		}
		for _, m := range matches {
			out = append(out, map[string]any{
				"id":        m.ID,
				"type_path": m.TypePath,
				"node":      map[string]any(m.Node),
			})
		}
	}

	b, err := keysort.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
	return err
}
