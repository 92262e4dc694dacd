package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check server connectivity and account summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if err := apiClient.Ping(ctx); err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}

			fmt.Println("ZapAgent")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  Server:   %s (up)\n", viper.GetString("server_url"))

			// The account summary needs credentials; connectivity does not
			token := viper.GetString("auth.token")
			if token == "" {
				fmt.Println("  Account:  not logged in")
				return nil
			}
			apiClient.SetToken(token)

			agents, err := apiClient.Agents().List(ctx)
			if err != nil {
				fmt.Printf("  Agents:   (error: %v)\n", err)
			} else {
				connected := 0
				for _, a := range agents {
					if a.Connected {
						connected++
					}
				}
				fmt.Printf("  Agents:   %d connected (%d total)\n", connected, len(agents))
			}

			plan, err := apiClient.Plans().Get(ctx)
			if err != nil {
				fmt.Printf("  Plan:     (error: %v)\n", err)
			} else {
				fmt.Printf("  Plan:     %s (%s)\n", plan.TierName, plan.PaymentStatus)
			}

			return nil
		},
	}
}
