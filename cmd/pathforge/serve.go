package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/pathforge-backend/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, log, cfg)
		if err != nil {
			log.Error("app init failed", "error", err)
			return err
		}
		defer a.Close()

		log.Info("pathforge starting", "port", cfg.Port, "version", cfg.Version, "vector_provider", cfg.VectorProvider)
		if err := a.Run(ctx); err != nil {
			log.Error("server stopped", "error", err)
			return err
		}
		log.Info("pathforge stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}
