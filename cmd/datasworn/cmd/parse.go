package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joeyeti/datasworn/internal/idpattern"
)

var parseCmd = &cobra.Command{
	Use:   "parse ID...",
	Short: "Check the shape of IDs without resolving them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

type parsedOutput struct {
	ID       string        `json:"id"`
	TypePath string        `json:"type_path,omitempty"`
	Package  string        `json:"package,omitempty"`
	Wildcard bool          `json:"wildcard,omitempty"`
	Groups   []parsedGroup `json:"groups,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type parsedGroup struct {
	Type     string   `json:"type"`
	Pattern  string   `json:"pattern"`
	Segments []string `json:"segments"`
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	parser, err := newParser(cfg)
	if err != nil {
		return err
	}

	var out []parsedOutput
	failed := 0
	for _, id := range args {
		parsed, err := parser.Parse(id)
		if err != nil {
			failed++
			out = append(out, parsedOutput{ID: id, Error: err.Error()})
			continue
		}

		po := parsedOutput{ID: id, TypePath: parsed.TypePath, Package: parsed.Package, Wildcard: parsed.Wildcard}
		segments := parsed.Segments()
		for i, f := range parsed.Pattern().Formats() {
			g := parsedGroup{Type: string(f.TypeID), Pattern: f.Source(idpattern.Exact, idpattern.GroupNone)}
			for _, seg := range segments[i] {
				g.Segments = append(g.Segments, seg.String())
			}
			po.Groups = append(po.Groups, g)
		}
		out = append(out, po)
	}

	if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d IDs are invalid", failed, len(args))
	}
	return nil
}
