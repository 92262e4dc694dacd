package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPaymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payment",
		Aliases: []string{"payments"},
		Short:   "Inspect your payments",
	}

	cmd.AddCommand(newPaymentListCmd())

	return cmd
}

func newPaymentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			payments, err := apiClient.Payments().List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list payments: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(payments)
			}

			table := NewTable("ID", "TIER", "AMOUNT", "METHOD", "STATUS", "PAID AT")
			for _, p := range payments {
				paidAt := "-"
				if p.PaidAt != nil {
					paidAt = p.PaidAt.Format("2006-01-02")
				}
				table.AddRow(
					strconv.FormatInt(p.ID, 10),
					strconv.Itoa(p.Tier),
					formatBRL(p.AmountCents),
					p.Method,
					p.Status,
					paidAt,
				)
			}
			table.Render()
			return nil
		},
	}
}
