package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joeyeti/datasworn/internal/idpattern"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns [TYPE_PATH...]",
	Short: "Print the regular expression of each ID type path",
	RunE:  runPatterns,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.Flags().Bool("wildcard", false, "render patterns that accept wildcard IDs")
	patternsCmd.Flags().Bool("json", false, "print a JSON object keyed by type path")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	wildcard, _ := cmd.Flags().GetBool("wildcard")
	asJSON, _ := cmd.Flags().GetBool("json")

	mode := idpattern.Exact
	if wildcard {
		mode = idpattern.Wildcard
	}

	reg := idpattern.Default()
	paths := args
	if len(paths) == 0 {
		paths = reg.TypePaths()
	}

	sources := make(map[string]string, len(paths))
	for _, path := range paths {
		p, err := reg.Pattern(path)
		if err != nil {
			return err
		}
		sources[path] = p.Source(true, mode, idpattern.GroupNone)
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), sources)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, path := range paths {
		fmt.Fprintf(tw, "%s\t%s\n", path, sources[path])
	}
	return tw.Flush()
}
