package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"kyri56xcaesar/pms-tracker/internal/board"
	"kyri56xcaesar/pms-tracker/internal/store"
	"kyri56xcaesar/pms-tracker/internal/tracker"

	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Terminal dashboard of projects and their derived statuses",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg := loadConfig()
		st, err := store.Open(ctx, tracker.StoreOptions(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := board.Run(ctx, st); err != nil {
			fmt.Fprintf(os.Stderr, "Error running board: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
