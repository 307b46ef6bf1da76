package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/pathforge-backend/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Enable extensions and create tables and the embedding index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Migrate(log, cfg)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
