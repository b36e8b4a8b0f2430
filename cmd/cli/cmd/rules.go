// Package cmd - rules commands
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bundle-pricing/adapters/rules/hclrepo"
	"bundle-pricing/core/rule"
	"bundle-pricing/internal/config"
)

// rulesCmd groups rule management commands
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the configured pricing rules",
}

var rulesStrategyID string

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules a pricing run would evaluate",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := loadRuleSet(context.Background())
		if err != nil {
			return err
		}

		for _, r := range rules {
			fmt.Printf("%-30s prio=%-4d %-12s -> %s\n", r.ID, r.Priority, r.Category, r.Event.Type)
		}
		fmt.Printf("%d rules\n", len(rules))
		return nil
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate the rule directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := loadRuleSet(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("OK: %d valid rules in %s\n", len(rules), config.Get().Rules.Directory)
		return nil
	},
}

func loadRuleSet(ctx context.Context) ([]rule.Rule, error) {
	repo := hclrepo.NewRepository(config.Get().Rules.Directory)
	if rulesStrategyID != "" {
		return repo.LoadRules(ctx, rulesStrategyID)
	}
	return repo.LoadDefaultRules(ctx)
}

func init() {
	rulesCmd.PersistentFlags().StringVarP(&rulesStrategyID, "strategy", "s", "", "pricing strategy id")
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
}
