package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caribdata/tt-addresses/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tt-addresses",
	Short: "Trinidad and Tobago address and gazetteer service",
	Long:  "Serves the administrative divisions and cities of Trinidad and Tobago with proximity search, autocomplete, address management, and geocoding.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
