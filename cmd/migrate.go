package cmd

import (
	"context"
	"log"

	"kyri56xcaesar/pms-tracker/internal/store"
	"kyri56xcaesar/pms-tracker/internal/tracker"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the tracker schema",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		st, err := store.Open(ctx, tracker.StoreOptions(loadConfig()))
		if err != nil {
			log.Fatalf("failed to open the database: %v", err)
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		log.Printf("schema up to date (%s)", st.Dialect())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
