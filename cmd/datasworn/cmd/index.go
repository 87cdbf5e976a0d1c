package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joeyeti/datasworn/internal/core/db"
	"github.com/joeyeti/datasworn/internal/types"
)

var indexCmd = &cobra.Command{
	Use:   "index VERSION",
	Short: "Record the IDs published by the loaded content as VERSION",
	Long: `Records every ID declared by the rules packages under --content-dir in
the database under VERSION, replacing any earlier record of that version.

With --since PREV, prints the IDs of PREV that VERSION no longer publishes
and that have no explicit legacy mapping.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().String("since", "", "earlier version to compare against")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	version := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	c, err := loadContent(cfg)
	if err != nil {
		return err
	}

	ids := c.IDs()
	entries := make([]db.IndexEntry, 0, len(ids))
	for _, id := range ids {
		typePath, _, _ := strings.Cut(id, types.PrefixSep)
		entries = append(entries, db.IndexEntry{ID: id, TypePath: typePath})
	}
	if err := store.RecordIndex(ctx, version, entries); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recorded %d IDs as %s\n", len(entries), version)

	since, _ := cmd.Flags().GetString("since")
	if since == "" {
		return nil
	}
	missing, err := store.ChangedWithoutMapping(ctx, since, version)
	if err != nil {
		return err
	}
	for _, id := range missing {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%d IDs of %s are gone from %s without a mapping", len(missing), since, version)
	}
	return nil
}
