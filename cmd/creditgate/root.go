package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "creditgate",
	Short: "Plan and credit entitlement gateway for AI content generation",
	Long: `CreditGate sits between your product and an AI generation backend.

It resolves each request against the caller's plan, checks the credit
balance, invokes the backend, and debits credits only after the
generation succeeds. Guests get a small local allowance on a static
set of services.

Quick start:
  creditgate serve      # Start the API server
  creditgate plans seed # Write the default plan catalog to the store

Management:
  creditgate users      # Manage users and balances
  creditgate plans      # Inspect and seed the plan catalog
  creditgate validate   # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "creditgate.yaml", "config file path")
}
