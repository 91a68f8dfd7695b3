package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "xerosync",
	Short: "Xero accounting sync service",
	Long: `xerosync keeps the local business datastore and a Xero tenant in
step: it pushes clients, billable items, and timesheet invoices out,
pulls contacts and invoice payment state back, and runs the sync jobs
sequentially off a Redis queue.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
