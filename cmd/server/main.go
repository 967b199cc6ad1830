package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "board",
	Short: "Kanban board API server",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			os.Setenv("CONFIG_FILE", configFile)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations, seed default containers and start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and seed default containers",
	RunE:  runMigrate,
}

var renormalizeCmd = &cobra.Command{
	Use:   "renormalize",
	Short: "Respace collapsed sort indices once and exit",
	RunE:  runRenormalize,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (overrides CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd, migrateCmd, renormalizeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
