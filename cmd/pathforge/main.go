// Package main is the entry point for the pathforge server and its operator commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yungbote/pathforge-backend/internal/app"
	"github.com/yungbote/pathforge-backend/internal/platform/envutil"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	log *logger.Logger
	cfg app.Config
)

var rootCmd = &cobra.Command{
	Use:   "pathforge",
	Short: "Learning path planner and on-demand course generator",
	Long: `pathforge turns a free-text learning request into an ordered path of courses,
reusing library courses where they match and writing the missing ones on demand.

Subcommands: serve (HTTP API), migrate (schema), seed (library courses) and
token (development access tokens).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		l, err := logger.New(envutil.String("LOG_MODE", "development"))
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = l
		cfg = app.LoadConfig(log)
		cfg.Version = version
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
