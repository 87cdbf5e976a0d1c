package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joeyeti/datasworn/internal/content"
	"github.com/joeyeti/datasworn/internal/core/api"
	"github.com/joeyeti/datasworn/internal/core/auth"
	"github.com/joeyeti/datasworn/internal/core/config"
	"github.com/joeyeti/datasworn/internal/core/server"
)

// Version is the release of the datasworn binary.
const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC ID service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "gRPC server host")
	serveCmd.Flags().Int("port", 0, "gRPC server port")
	serveCmd.Flags().Bool("watch", false, "reload content when files under --content-dir change")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set DS_HMAC_SECRET environment variable)")
	}
	authenticator := auth.NewAuthenticator(secrets, store.Queries())

	parser, err := newParser(cfg)
	if err != nil {
		return err
	}
	migrator, err := newMigrator(ctx, cfg, store)
	if err != nil {
		return err
	}
	c, err := loadContent(cfg)
	if err != nil {
		return err
	}

	service, err := api.NewIdService(parser, migrator, c.Tree)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		w := &content.Watcher{
			Dir:      cfg.Content.Dir,
			Pattern:  cfg.Content.Pattern,
			OnReload: func(c *content.Content) { service.SetTree(c.Tree) },
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("content watcher stopped", "error", err)
			}
		}()
	}

	grpcServer, err := server.NewGRPCServer(&cfg.Server, service, authenticator, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	slog.Info("starting datasworn ID service",
		"version", Version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"packages", c.Packages(),
	)
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return grpcServer.Shutdown(shutdownCtx)
	}
}
