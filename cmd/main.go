package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "corporate-pulse",
	Short: "A CLI for the Corporate Pulse dashboard services",
	Long: `Corporate Pulse compares a stock's fundamental valuation (P/E) with market sentiment (hype).
Run the dashboard with the dashboard-service binary and manage the schema with migrate.`,
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
