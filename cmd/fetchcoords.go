package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fetchCoordsLimit  int
	fetchCoordsDryRun bool
	fetchCoordsCities bool
)

var fetchCoordsCmd = &cobra.Command{
	Use:   "fetchcoords",
	Short: "Geocode stored records that are missing coordinates",
	Long:  "Fill in coordinates for addresses, or for reference cities with --cities, using the configured geocoding provider.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.geocoder.Name() == "null" {
			return eris.New("fetchcoords: no geocoding provider configured")
		}

		if fetchCoordsCities {
			return backfillCityCoords(cmd, env)
		}

		n, err := env.addresses.BackfillCoordinates(ctx, fetchCoordsLimit, fetchCoordsDryRun)
		if err != nil {
			return err
		}

		if fetchCoordsDryRun {
			fmt.Printf("%d addresses need coordinates (dry run)\n", n)
			return nil
		}
		fmt.Printf("Filled coordinates for %d addresses\n", n)
		return nil
	},
}

// backfillCityCoords geocodes reference cities without coordinates by their
// "name, division, Trinidad and Tobago" label. Individual misses are logged
// and skipped so one bad name never aborts the run.
func backfillCityCoords(cmd *cobra.Command, env *env) error {
	ctx := cmd.Context()

	cities, err := env.store.ListCitiesMissingCoordinates(ctx)
	if err != nil {
		return err
	}
	if fetchCoordsLimit > 0 && len(cities) > fetchCoordsLimit {
		cities = cities[:fetchCoordsLimit]
	}

	if fetchCoordsDryRun {
		fmt.Printf("%d cities need coordinates (dry run)\n", len(cities))
		return nil
	}

	filled := 0
	for _, c := range cities {
		query := fmt.Sprintf("%s, %s", c.FullLocation(), cfg.CountryName)
		result, err := env.geocoder.Geocode(ctx, query)
		if err != nil {
			zap.L().Warn("city geocode failed",
				zap.String("city", c.Name),
				zap.Error(err),
			)
			continue
		}
		if result == nil {
			zap.L().Info("city geocode found no match", zap.String("city", c.Name))
			continue
		}
		if err := env.store.SetCityCoordinates(ctx, c.ID, result.Latitude, result.Longitude); err != nil {
			return err
		}
		filled++
	}

	fmt.Printf("Filled coordinates for %d of %d cities\n", filled, len(cities))
	return nil
}

func init() {
	fetchCoordsCmd.Flags().IntVar(&fetchCoordsLimit, "limit", 100, "max records to process")
	fetchCoordsCmd.Flags().BoolVar(&fetchCoordsDryRun, "dry-run", false, "count candidates without geocoding")
	fetchCoordsCmd.Flags().BoolVar(&fetchCoordsCities, "cities", false, "backfill reference cities instead of addresses")
	rootCmd.AddCommand(fetchCoordsCmd)
}
