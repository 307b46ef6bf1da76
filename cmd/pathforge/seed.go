package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/pathforge-backend/internal/app"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the built-in library courses with their embeddings",
	Long: `seed inserts the public library courses that are not present yet, embeds each
course's retrieval document and stores it (and mirrors it into the configured vector
index). Courses are matched by title, so running it twice creates nothing new.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, log, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Services.Course.SeedLibrary(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, id := range res.Created {
			fmt.Fprintf(out, "created %s\n", id)
		}
		for _, title := range res.Skipped {
			fmt.Fprintf(out, "skipped %q (exists)\n", title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
