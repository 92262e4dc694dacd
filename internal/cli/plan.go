package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zapagent/zapagent/pkg/client"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect and upgrade your plan",
	}

	cmd.AddCommand(newPlanShowCmd())
	cmd.AddCommand(newPlanCatalogCmd())
	cmd.AddCommand(newPlanUpgradeCmd())

	return cmd
}

func newPlanShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your current plan and trial status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			plan, err := apiClient.Plans().Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch plan: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(plan)
			}

			fmt.Printf("Plan:           %s (tier %d)\n", plan.TierName, plan.Tier)
			fmt.Printf("Agent limit:    %d\n", plan.AgentLimit)
			fmt.Printf("Payment status: %s\n", plan.PaymentStatus)
			if plan.TrialEndsAt != nil {
				fmt.Printf("Trial ends:     %s\n", plan.TrialEndsAt.Format("2006-01-02"))
			}
			if plan.SubscriptionEndsAt != nil {
				fmt.Printf("Renews until:   %s\n", plan.SubscriptionEndsAt.Format("2006-01-02"))
			}

			status, err := apiClient.Plans().TrialStatus(ctx)
			if err == nil {
				fmt.Printf("Status:         %s", status.Status)
				if status.Status == "active" {
					fmt.Printf(" (%d days remaining)", status.DaysRemaining)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func newPlanCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Show the purchasable plan tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			entries, err := apiClient.Plans().Catalog(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch catalog: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(entries)
			}

			table := NewTable("TIER", "NAME", "PRICE", "AGENTS", "DESCRIPTION")
			for _, e := range entries {
				price := "free"
				if e.PriceCents > 0 {
					price = formatBRL(e.PriceCents) + "/month"
				}
				table.AddRow(
					strconv.Itoa(e.Tier),
					e.Name,
					price,
					strconv.Itoa(e.AgentLimit),
					e.Description,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newPlanUpgradeCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "upgrade <tier>",
		Short: "Upgrade to a paid tier, or redeem a promo code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier := 0
			if len(args) == 1 {
				t, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid tier: %s", args[0])
				}
				tier = t
			} else if code == "" {
				return fmt.Errorf("specify a tier or a promo code")
			}

			ctx := context.Background()
			resp, err := apiClient.Plans().Checkout(ctx, client.CheckoutRequest{
				Tier: tier,
				Code: code,
			})
			if err != nil {
				return fmt.Errorf("checkout failed: %w", err)
			}

			if resp.PromoApplied {
				fmt.Println("Promo code applied — enjoy your extended trial")
			} else if resp.Plan != nil {
				fmt.Printf("Checkout started for plan %s — complete the payment to activate it\n", resp.Plan.TierName)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "promo code")

	return cmd
}
