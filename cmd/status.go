package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caribdata/tt-addresses/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reference data counts and configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		divisions := env.gaz.Divisions()
		trinidad := 0
		tobago := 0
		for _, d := range divisions {
			if d.Island == model.IslandTrinidad {
				trinidad++
			} else {
				tobago++
			}
		}

		cities := env.gaz.Cities()
		withCoords := len(env.gaz.WithCoordinates())

		fmt.Printf("Store:      %s\n", cfg.Store.Driver)
		fmt.Printf("Geocoder:   %s (available: %t)\n", env.geocoder.Name(), env.geocoder.Available())
		fmt.Printf("Divisions:  %d (%d Trinidad, %d Tobago)\n", len(divisions), trinidad, tobago)
		fmt.Printf("Cities:     %d (%d with coordinates)\n", len(cities), withCoords)
		fmt.Printf("Popular:    %d configured\n", len(cfg.PopularCities))
		fmt.Printf("Owner kinds: %v\n", env.addresses.OwnerKinds().Kinds())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
