// Package commands implements the CLI commands for stayscout.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "stayscout",
	Short: "Rental listing extraction engine",
	Long: `Stayscout turns vacation-rental listing URLs into normalized
records: title, price, capacity, location, images and amenities.

It drives a hardened headless browser, waits out bot interstitials,
and knows the page structure of the major rental platforms.

Examples:
  # Extract one listing to stdout
  stayscout extract "https://www.vrbo.com/1234567"

  # YAML output to a file
  stayscout extract -o listing.yaml --format yaml "https://www.airbnb.com/rooms/987"

  # Run the HTTP API
  stayscout serve --addr :8080`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.stayscout.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".stayscout")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STAYSCOUT")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
