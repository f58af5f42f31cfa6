// Package main is the entry point for the question-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the question-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "question-engine",
	Short: "Convert question paper PDFs into structured JSON",
	Long: `question-engine converts educational question paper PDFs into structured
data: per-question records with their text, options, and associated images.

Each stage is a subcommand: extract runs the conversion pipeline, inspect
previews segmentation without writing output, and bank indexes converted
papers into a searchable SQLite question bank.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./question-engine.yaml or ~/.config/question-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("question-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "question-engine"))
		}
	}

	viper.SetEnvPrefix("QUESTION_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setting returns the string flag value, falling back to the config file
// or environment when the flag was not set on the command line.
func setting(cmd *cobra.Command, name string) string {
	if cmd.Flags().Changed(name) || !viper.IsSet(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return viper.GetString(name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
