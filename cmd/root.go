package cmd

import (
	"os"

	"kyri56xcaesar/pms-tracker/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pms-tracker",
	Short: "Project and task tracker for AS400 and web teams",
	Long: `pms-tracker keeps projects, tasks and their AS400/web assignments,
derives project status per track and serves it over a JSON API.`,
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/tracker.env", "env file with the tracker configuration")
	rootCmd.PersistentFlags().String("profile", "", "deployment profile (overrides PROFILE)")
	rootCmd.PersistentFlags().String("db-driver", "", "postgres or sqlite (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "sqlite database file (overrides SQLITE_PATH)")

	cobra.CheckErr(viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile")))
	cobra.CheckErr(viper.BindPFlag("db_driver", rootCmd.PersistentFlags().Lookup("db-driver")))
	cobra.CheckErr(viper.BindPFlag("sqlite_path", rootCmd.PersistentFlags().Lookup("sqlite-path")))
}

func initConfig() {
	viper.SetEnvPrefix("tracker")
	viper.AutomaticEnv()
}

// loadConfig reads the env file, then lets flags and TRACKER_* variables
// override the keys they name.
func loadConfig() config.Config {
	cfg := config.Load(cfgFile)

	if v := viper.GetString("profile"); v != "" {
		cfg.Profile = v
	}
	if v := viper.GetString("port"); v != "" {
		cfg.Port = v
	}
	if v := viper.GetString("db_driver"); v != "" {
		cfg.DBDriver = v
	}
	if v := viper.GetString("sqlite_path"); v != "" {
		cfg.SQLitePath = v
	}
	return cfg
}
