package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/joeyeti/datasworn/internal/content"
	"github.com/joeyeti/datasworn/internal/core/db"
	"github.com/joeyeti/datasworn/internal/migration"
	"github.com/joeyeti/datasworn/internal/typeid"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [FILE...]",
	Short: "Rewrite legacy IDs in JSON documents",
	Long: `Rewrites every legacy ID and Markdown ID reference in the given JSON
documents and prints them in canonical key order. With no files, or "-",
the document is read from stdin.

Strings with no known migration are left as they are and reported; they
never stop the run. When a database is configured each document's counts
are recorded as a migration run.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("in-place", false, "rewrite files instead of printing them")
	migrateCmd.Flags().Bool("ids", false, "treat arguments as legacy IDs and print their migrations")
	migrateCmd.Flags().String("type", "", "type hint restricting the rules tried with --ids")
	migrateCmd.Flags().Int("jobs", 4, "documents migrated concurrently")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer closeStore()

	m, err := newMigrator(ctx, cfg, store)
	if err != nil {
		return err
	}

	if ids, _ := cmd.Flags().GetBool("ids"); ids {
		hint, _ := cmd.Flags().GetString("type")
		return migrateIDs(cmd.OutOrStdout(), m, args, hint)
	}

	inPlace, _ := cmd.Flags().GetBool("in-place")
	jobs, _ := cmd.Flags().GetInt("jobs")

	if len(args) == 0 {
		args = []string{"-"}
	}
	if inPlace {
		for _, path := range args {
			if path == "-" {
				return fmt.Errorf("--in-place cannot rewrite stdin")
			}
		}
	}
	if jobs < 1 {
		jobs = 1
	}

	outputs := make([][]byte, len(args))
	p := pool.New().WithErrors().WithMaxGoroutines(jobs)
	for i, path := range args {
		p.Go(func() error {
			out, err := migrateFile(ctx, m, store, path, cmd.InOrStdin(), inPlace)
			outputs[i] = out
			return err
		})
	}
	err = p.Wait()

	if !inPlace {
		for _, out := range outputs {
			if _, werr := cmd.OutOrStdout().Write(out); werr != nil {
				return werr
			}
		}
	}
	return err
}

func migrateFile(ctx context.Context, m *migration.Migrator, store *db.Store, path string, stdin io.Reader, inPlace bool) ([]byte, error) {
	in, err := readInput(stdin, path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	stats, err := m.UpdateDocument(bytes.NewReader(in), &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("document migrated",
		"file", path,
		"strings", stats.Strings,
		"migrated", stats.Migrated,
		"removed", stats.Removed,
		"unmigrated", len(stats.Unmigrated),
	)

	if store != nil {
		run := db.Run{
			Source:      path,
			StringsSeen: stats.Strings,
			Migrated:    stats.Migrated,
			Removed:     stats.Removed,
			Unmigrated:  len(stats.Unmigrated),
		}
		if _, err := store.RecordRun(ctx, run); err != nil {
			return nil, err
		}
	}

	if inPlace {
		if bytes.Equal(in, buf.Bytes()) {
			return nil, nil
		}
		return nil, content.WriteFile(ctx, path, buf.Bytes())
	}
	return buf.Bytes(), nil
}

func migrateIDs(w io.Writer, m *migration.Migrator, ids []string, hint string) error {
	var typ typeid.TypeID
	if hint != "" {
		t, err := typeid.Default().Parse(hint)
		if err != nil {
			return err
		}
		typ = t
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, id := range ids {
		res, err := m.Lookup(id, typ)
		switch {
		case migration.IsNoMigration(err):
			fmt.Fprintf(tw, "%s\t(no migration)\n", id)
		case err != nil:
			return err
		case res.Removed:
			fmt.Fprintf(tw, "%s\t(removed)\n", id)
		default:
			fmt.Fprintf(tw, "%s\t%s\n", id, res.NewID)
		}
	}
	return tw.Flush()
}
