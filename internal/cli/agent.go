package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapagent/zapagent/pkg/client"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agent",
		Aliases: []string{"agents"},
		Short:   "Manage WhatsApp agents",
	}

	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentCreateCmd())
	cmd.AddCommand(newAgentDeleteCmd())
	cmd.AddCommand(newAgentConnectCmd())
	cmd.AddCommand(newAgentDisconnectCmd())
	cmd.AddCommand(newAgentQRCmd())
	cmd.AddCommand(newAgentStatsCmd())

	return cmd
}

func newAgentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			agents, err := apiClient.Agents().List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list agents: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(agents)
			}

			table := NewTable("ID", "NAME", "TYPE", "CONNECTION", "CREATED")
			for _, a := range agents {
				table.AddRow(
					strconv.FormatInt(a.ID, 10),
					a.Name,
					a.Type,
					formatConnection(a.Connected),
					a.CreatedAt.Format("2006-01-02"),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newAgentCreateCmd() *cobra.Command {
	var name, agentType, profileFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = promptInput("Agent name: ")
			}
			if agentType == "" {
				agentType = promptInput("Agent type (sales/sdr/closer/support/custom): ")
			}

			var profile json.RawMessage
			if profileFile != "" {
				data, err := os.ReadFile(profileFile)
				if err != nil {
					return fmt.Errorf("failed to read profile file: %w", err)
				}
				if !json.Valid(data) {
					return fmt.Errorf("profile file is not valid JSON")
				}
				profile = data
			}

			ctx := context.Background()
			agent, err := apiClient.Agents().Create(ctx, client.CreateAgentRequest{
				Name:    name,
				Type:    agentType,
				Profile: profile,
			})
			if err != nil {
				return fmt.Errorf("failed to create agent: %w", err)
			}

			fmt.Printf("Agent %q created (ID %d)\n", agent.Name, agent.ID)
			fmt.Println("Run 'zapagent agent connect' to pair it with WhatsApp")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "agent name")
	cmd.Flags().StringVar(&agentType, "type", "", "agent type")
	cmd.Flags().StringVar(&profileFile, "profile", "", "path to a JSON profile file")

	return cmd
}

func newAgentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid agent ID: %s", args[0])
			}

			ctx := context.Background()
			if err := apiClient.Agents().Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete agent: %w", err)
			}

			fmt.Printf("Agent %d deleted\n", id)
			return nil
		},
	}
}

func newAgentConnectCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "connect <id>",
		Short: "Pair an agent with WhatsApp via QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid agent ID: %s", args[0])
			}

			ctx := context.Background()
			state, err := apiClient.Agents().Connect(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to start pairing: %w", err)
			}

			fmt.Printf("Pairing session started (state: %s)\n", state.State)
			fmt.Printf("Fetch the QR code with 'zapagent agent qr %d'\n", id)

			if !wait {
				return nil
			}

			// Poll until the provider reports the instance open
			for {
				time.Sleep(3 * time.Second)
				state, err := apiClient.Agents().ConnectionState(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to poll connection state: %w", err)
				}

				switch state.State {
				case "connected":
					fmt.Println("Agent connected")
					return nil
				case "closed":
					if state.Error != "" {
						return fmt.Errorf("pairing failed: %s", state.Error)
					}
					return fmt.Errorf("pairing session closed before connecting")
				}
			}
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "block until the agent connects")

	return cmd
}

func newAgentDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <id>",
		Short: "Log an agent out of WhatsApp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid agent ID: %s", args[0])
			}

			ctx := context.Background()
			if err := apiClient.Agents().Disconnect(ctx, id); err != nil {
				return fmt.Errorf("failed to disconnect agent: %w", err)
			}

			fmt.Printf("Agent %d disconnected\n", id)
			return nil
		},
	}
}

func newAgentQRCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "qr <id>",
		Short: "Save the agent's pairing QR code to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid agent ID: %s", args[0])
			}

			ctx := context.Background()
			data, err := apiClient.Agents().QRCode(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch QR code: %w", err)
			}

			if outFile == "" {
				outFile = fmt.Sprintf("zapagent-qr-%d.png", id)
			}
			if err := os.WriteFile(outFile, data, 0600); err != nil {
				return fmt.Errorf("failed to write QR code: %w", err)
			}

			fmt.Printf("QR code saved to %s — scan it with WhatsApp\n", outFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "output file path")

	return cmd
}

func newAgentStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <id>",
		Short: "Show an agent's usage counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid agent ID: %s", args[0])
			}

			ctx := context.Background()
			stats, err := apiClient.Agents().Analytics(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch analytics: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(stats)
			}

			fmt.Printf("Messages sent:     %d\n", stats.MessagesSent)
			fmt.Printf("Messages received: %d\n", stats.MessagesReceived)
			fmt.Printf("Connections:       %d\n", stats.Connections)
			if stats.LastConnectedAt != nil {
				fmt.Printf("Last connected:    %s\n", stats.LastConnectedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
