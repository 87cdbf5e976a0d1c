package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joeyeti/datasworn/internal/core/auth"
	"github.com/joeyeti/datasworn/internal/core/config"
	"github.com/joeyeti/datasworn/internal/types"
)

// secretBytes is the size of generated HMAC secrets.
const secretBytes = 32

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys of the ID service",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Issue an API key; the key is printed once and only its hash is stored",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysCreate,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issued API keys",
	Args:  cobra.NoArgs,
	RunE:  runKeysList,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke KEY_ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

var keysSecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate a new HMAC secret for DS_HMAC_SECRET",
	Args:  cobra.NoArgs,
	RunE:  runKeysSecret,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysListCmd, keysRevokeCmd, keysSecretCmd)
	keysCreateCmd.Flags().String("secret-id", "", "secret to sign with (default: the only configured secret)")
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	secretID, _ := cmd.Flags().GetString("secret-id")
	if secretID == "" {
		if len(secrets) != 1 {
			return fmt.Errorf("%d HMAC secrets configured; choose one with --secret-id", len(secrets))
		}
		for id := range secrets {
			secretID = id
		}
	}
	secret, ok := secrets[secretID]
	if !ok {
		return fmt.Errorf("unknown secret ID %s", secretID)
	}

	store, closeStore, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	key, hash, err := auth.GenerateAPIKey(secretID, secret)
	if err != nil {
		return err
	}
	id, err := store.CreateAPIKey(cmd.Context(), args[0], secretID, hash)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "key_id: %s\napi_key: %s\n", id, key)
	return nil
}

func runKeysList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	keys, err := store.APIKeys(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY ID\tNAME\tCREATED\tSTATE")
	for _, k := range keys {
		state := "active"
		if k.RevokedAt.Valid {
			state = "revoked"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.ID, k.Name, k.CreatedAt.UTC().Format(time.RFC3339), state)
	}
	return tw.Flush()
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.RevokeAPIKey(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
	return nil
}

func runKeysSecret(cmd *cobra.Command, args []string) error {
	secret := make([]byte, secretBytes)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "DS_HMAC_SECRET=%s:%s\n", types.NewSecretID(), base64.StdEncoding.EncodeToString(secret))
	return nil
}
