// Package cmd - price command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	catalogadapter "bundle-pricing/adapters/catalog"
	pricingadapter "bundle-pricing/adapters/pricing"
	"bundle-pricing/adapters/rules/hclrepo"
	"bundle-pricing/core/engine"
	"bundle-pricing/core/strategy"
	"bundle-pricing/core/stream"
	"bundle-pricing/core/types"
	"bundle-pricing/internal/config"
)

var (
	priceDays     int
	priceCountry  string
	priceRegion   string
	priceGroup    string
	pricePayment  string
	priceStrategy string
	priceFormat   string
	priceStream   bool
	priceDebug    bool
)

// priceCmd represents the price command
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price one purchase request",
	Long: `Evaluate a purchase request against the catalog and the configured
pricing rules.

Examples:
  bundle-pricing price --days 5 --country AU --payment card
  bundle-pricing price --days 7 --region EU --payment paypal --stream
  bundle-pricing price --days 3 --country AU --payment card --strategy summer-promo`,
	RunE: runPrice,
}

func init() {
	priceCmd.Flags().IntVarP(&priceDays, "days", "d", 0, "requested duration in days (required)")
	priceCmd.Flags().StringVar(&priceCountry, "country", "", "destination country code")
	priceCmd.Flags().StringVar(&priceRegion, "region", "", "destination region code")
	priceCmd.Flags().StringVarP(&priceGroup, "group", "g", "", "bundle group filter")
	priceCmd.Flags().StringVarP(&pricePayment, "payment", "p", "card", "payment method")
	priceCmd.Flags().StringVarP(&priceStrategy, "strategy", "s", "", "pricing strategy id")
	priceCmd.Flags().StringVarP(&priceFormat, "format", "f", "cli", "output format (cli, json)")
	priceCmd.Flags().BoolVar(&priceStream, "stream", false, "print each pricing step as it is produced")
	priceCmd.Flags().BoolVar(&priceDebug, "debug", false, "include debug info in the breakdown")
	_ = priceCmd.MarkFlagRequired("days")
}

func runPrice(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	eng, err := buildEngine()
	if err != nil {
		return err
	}

	req := types.PricingRequest{
		Days:          priceDays,
		Group:         priceGroup,
		Country:       priceCountry,
		Region:        priceRegion,
		PaymentMethod: pricePayment,
		StrategyID:    priceStrategy,
		Debug:         priceDebug,
	}

	var breakdown *types.PricingBreakdown
	if priceStream {
		sink := stream.SinkFunc(printStreamMessage)
		breakdown, err = eng.PriceStream(ctx, req, "", sink)
	} else {
		breakdown, err = eng.Price(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("pricing failed: %w", err)
	}

	if priceFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(breakdown)
	}

	printBreakdown(breakdown)
	return nil
}

// buildEngine wires the engine from the effective configuration
func buildEngine() (*engine.Engine, error) {
	cfg := config.Get()

	cat, err := catalogadapter.LoadStatic(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	fees, err := pricingadapter.LoadFeeMatrix(cfg.Fees.Path)
	if err != nil {
		return nil, err
	}

	markup, err := pricingadapter.LoadMarkupMatrix(cfg.Pricing.MarkupPath)
	if err != nil {
		return nil, err
	}

	repo := strategy.NewCachedRepository(
		hclrepo.NewRepository(cfg.Rules.Directory),
		time.Duration(cfg.Rules.CacheTTLSeconds)*time.Second,
	)

	engineCfg := engine.Config{
		Currency:               types.Currency(cfg.Pricing.DefaultCurrency),
		FlatMarkup:             decimal.NewFromFloat(cfg.Pricing.FlatMarkup),
		MinProfit:              decimal.NewFromFloat(cfg.Pricing.MinProfit),
		UnusedDaysRefundFactor: decimal.NewFromFloat(cfg.Pricing.UnusedDaysRefundFactor),
		RegionRoundingOffset:   decimal.NewFromFloat(cfg.Pricing.RegionRoundingOffset),
		PreferredProviders:     cfg.Catalog.PreferredProviders,
	}

	return engine.New(cat, repo, fees, markup, engineCfg), nil
}

func printStreamMessage(msg stream.Message) error {
	if msg.Step != nil {
		fmt.Printf("  [%d] %-55s %10s -> %s\n",
			msg.Step.Order, msg.Step.Name,
			msg.Step.PriceBefore.StringFixed(2), msg.Step.PriceAfter.StringFixed(2))
	}
	if msg.IsComplete && msg.Error != "" {
		fmt.Printf("  stream %s failed: %s\n", msg.CorrelationID, msg.Error)
	}
	return nil
}

func printBreakdown(b *types.PricingBreakdown) {
	fmt.Printf("Final price: %s %s\n", b.FinalPrice.StringFixed(2), b.Currency)
	fmt.Printf("  Base cost:        %s\n", b.Cost.StringFixed(2))
	fmt.Printf("  Markup:           %s\n", b.Markup.StringFixed(2))
	fmt.Printf("  Discounts:        -%s\n", b.DiscountValue.StringFixed(2))
	fmt.Printf("  Processing fee:   %s\n", b.ProcessingCost.StringFixed(2))
	fmt.Printf("  Unused days:      %d\n", b.UnusedDays)
	fmt.Printf("  Net profit:       %s\n", b.NetProfit.StringFixed(2))

	if len(b.CustomerDiscounts) > 0 {
		fmt.Println("Savings:")
		for _, d := range b.CustomerDiscounts {
			fmt.Printf("  %s: %s (%s%%) - %s\n",
				d.Label, d.Amount.StringFixed(2), d.Percentage.String(), d.Reason)
		}
	}

	if !priceStream {
		fmt.Println("Steps:")
		for _, step := range b.PricingSteps {
			fmt.Printf("  [%d] %-55s %10s -> %s\n",
				step.Order, step.Name,
				step.PriceBefore.StringFixed(2), step.PriceAfter.StringFixed(2))
		}
	}

	fmt.Printf("Evaluated %d rules in %dms\n", b.RulesEvaluated, b.CalculationTimeMs)
}
