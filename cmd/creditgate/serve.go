package main

import (
	"fmt"
	"os"

	"github.com/scribefox/creditgate/bootstrap"
	"github.com/scribefox/creditgate/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the entitlement API server",
	Long: `Start the CreditGate API server.

The server will:
  - Load configuration from creditgate.yaml (or --config)
  - Or load configuration from CREDITGATE_* environment variables
  - Open the database and apply migrations
  - Serve the generation, plan, and admin APIs

Environment variables (for Docker deployments):
  CREDITGATE_GENERATOR_URL   - Generation backend URL (required)
  CREDITGATE_DATABASE_DSN    - Database path (default: creditgate.db)
  CREDITGATE_SERVER_PORT     - Server port (default: 8080)
  CREDITGATE_LOG_LEVEL       - Log level: debug, info, warn, error

Examples:
  creditgate serve
  creditgate serve --config /etc/creditgate/config.yaml
  creditgate serve --hot-reload=false

  # Docker (env vars only):
  CREDITGATE_GENERATOR_URL=https://gen.example.com creditgate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if !hasConfigFile && !config.HasEnvConfig() {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s (see creditgate.yaml.example)\n", cfgFile)
		fmt.Println("Option 2: Set CREDITGATE_GENERATOR_URL environment variable")
		fmt.Println()
		fmt.Println("Example (env vars):")
		fmt.Println("  CREDITGATE_GENERATOR_URL=https://gen.example.com creditgate serve")
		return nil
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
