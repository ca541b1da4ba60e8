package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the planner application
var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Plans tasks onto your calendar and keeps it in sync",
	Long: `planner is the client side of a task planner: it places tasks into free
calendar slots, keeps tasks, events and teams in sync with the planner API,
and resolves conflicts with an external calendar provider.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - A one-shot provider sync (sync)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "planner version %s\n" .Version}}`)

	// If no subcommand is provided, start the MCP server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
