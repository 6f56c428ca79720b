package main

import (
	"fmt"

	"github.com/scribefox/creditgate/adapters/hasher"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin API helpers",
}

var adminHashTokenCmd = &cobra.Command{
	Use:   "hash-token <token>",
	Short: "Hash an admin bearer token for admin.token_hash",
	Long: `Hash an admin bearer token.

The admin API authenticates with a bearer token; only its bcrypt hash
is stored in configuration. Generate the hash here and put it under
admin.token_hash in the config file.

Example:
  creditgate admin hash-token "$(openssl rand -hex 24)"`,
	Args: cobra.ExactArgs(1),
	RunE: runAdminHashToken,
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminHashTokenCmd)
}

func runAdminHashToken(cmd *cobra.Command, args []string) error {
	h := hasher.NewBcrypt(10)
	hash, err := h.Hash(args[0])
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	fmt.Println(string(hash))
	fmt.Println()
	fmt.Println("Add to config:")
	fmt.Println("  admin:")
	fmt.Printf("    token_hash: \"%s\"\n", string(hash))
	return nil
}
