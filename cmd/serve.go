package cmd

import (
	"log"

	"kyri56xcaesar/pms-tracker/internal/tracker"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracker API",
	Run: func(cmd *cobra.Command, args []string) {
		if err := tracker.InitAndServe(loadConfig()); err != nil {
			log.Fatalf("failed to serve: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "", "listen port (overrides PORT)")
	cobra.CheckErr(viper.BindPFlag("port", serveCmd.Flags().Lookup("port")))
}
