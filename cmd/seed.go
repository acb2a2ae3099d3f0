package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caribdata/tt-addresses/internal/seed"
	"github.com/caribdata/tt-addresses/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run migrations and load the reference dataset into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.FromConfig(ctx, cfg.Store, cfg.Tables)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "seed: migrate")
		}

		divisions, cities, err := seed.Load()
		if err != nil {
			return err
		}

		nDiv, err := st.UpsertDivisions(ctx, divisions)
		if err != nil {
			return err
		}
		nCity, err := st.UpsertCities(ctx, cities)
		if err != nil {
			return err
		}

		zap.L().Info("seed complete",
			zap.Int64("divisions", nDiv),
			zap.Int64("cities", nCity),
		)
		fmt.Printf("Seeded %d divisions and %d cities (%s)\n", nDiv, nCity, cfg.Store.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
