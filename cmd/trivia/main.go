package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trivia",
	Short: "Adaptive trivia quiz game",
	Long:  "Adaptive trivia quiz: the difficulty of each question follows the player's recent performance.",
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides CONFIG_PATH env var)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(trainCmd)
}

// resolveConfigPath returns the config path using --config flag (highest priority),
// then CONFIG_PATH env var, then config/config.yaml.
func resolveConfigPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
