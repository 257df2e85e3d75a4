/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shop",
	Short: "Teslo shop backend",
	Long: `Teslo shop backend: product catalog, JWT authentication and image uploads.

	shop server        start the HTTP API
	shop migrate up    apply database migrations
	shop seed          reset the database with demo data
	shop events        print product change events`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
