// Package cmd provides the CLI commands for bundle-pricing.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bundle-pricing/internal/config"
	"bundle-pricing/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bundle-pricing",
	Short: "Price connectivity bundles against configured business rules",
	Long: `bundle-pricing evaluates a purchase request against the bundle
catalog and the configured pricing rules, producing a final price and
a full audit trail.

Examples:
  bundle-pricing price --days 5 --country AU --payment card
  bundle-pricing price --days 7 --region EU --payment paypal --format json
  bundle-pricing rules validate`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bundle-pricing.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bundle-pricing version 0.1.0")
	},
}

// configCmd shows the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		path := cfgFile
		if path == "" {
			path = "(defaults)"
		}
		fmt.Printf("Config source: %s\n", path)
		fmt.Printf("Rules directory: %s\n", cfg.Rules.Directory)
		fmt.Printf("Catalog path: %s\n", cfg.Catalog.Path)
		fmt.Printf("Fee matrix path: %s\n", cfg.Fees.Path)
		fmt.Printf("Rule cache TTL: %ds\n", cfg.Rules.CacheTTLSeconds)
		fmt.Printf("Default currency: %s\n", cfg.Pricing.DefaultCurrency)
		return nil
	},
}
