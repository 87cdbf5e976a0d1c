package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joeyeti/datasworn/internal/content"
	"github.com/joeyeti/datasworn/internal/core/config"
	"github.com/joeyeti/datasworn/internal/core/db"
	"github.com/joeyeti/datasworn/internal/idparser"
	"github.com/joeyeti/datasworn/internal/idpattern"
	"github.com/joeyeti/datasworn/internal/migration"
	"github.com/joeyeti/datasworn/internal/typeid"
)

func newParser(cfg *config.Config) (*idparser.Parser, error) {
	p, err := idparser.New(idpattern.Default(), cfg.Parser.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}
	return p, nil
}

func loadContent(cfg *config.Config) (*content.Content, error) {
	c, err := content.Load(cfg.Content.Dir, cfg.Content.Pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	slog.Debug("content loaded", "dir", cfg.Content.Dir, "packages", c.Packages())
	return c, nil
}

// openStore opens and migrates the configured database. Returns nil when no
// database is configured and required is false.
func openStore(cfg *config.Config, required bool) (*db.Store, func(), error) {
	if cfg.DB.URL == "" {
		if required {
			return nil, nil, fmt.Errorf("--db-url required")
		}
		return nil, func() {}, nil
	}

	conn, err := db.Open(cfg.DB.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.MigrateUp(conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	store, err := db.NewStore(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return store, func() { conn.Close() }, nil
}

// newMigrator builds a migrator from the built-in rules plus the configured
// overrides. Explicit mappings come from the database first and the ID map
// file second, so the file wins on conflict.
func newMigrator(ctx context.Context, cfg *config.Config, store *db.Store) (*migration.Migrator, error) {
	mcfg := migration.Config{Logger: slog.Default()}

	if path := cfg.Migration.OverridesFile; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open overrides: %w", err)
		}
		defer f.Close()
		renames, err := migration.LoadOverrides(f, typeid.Default())
		if err != nil {
			return nil, err
		}
		mcfg.Renames = renames
	}

	idMap := map[string]*string{}
	if store != nil {
		stored, err := store.IDMap(ctx)
		if err != nil {
			return nil, err
		}
		for k, v := range stored {
			idMap[k] = v
		}
	}
	if path := cfg.Migration.IDMapFile; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open ID map: %w", err)
		}
		defer f.Close()
		fromFile, err := migration.LoadIDMap(f)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			idMap[k] = v
		}
	}
	mcfg.IDMap = idMap

	return migration.New(typeid.Default(), mcfg)
}
