package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caribdata/tt-addresses/pkg/geocode"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Warm, flush, or inspect the lookup caches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		warm, _ := cmd.Flags().GetBool("warm")
		flush, _ := cmd.Flags().GetBool("flush")
		stats, _ := cmd.Flags().GetBool("stats")
		flush, warm, stats = optimizeActions(flush, warm, stats)

		if flush {
			env.gaz.InvalidatePopular()
			if cached, ok := env.geocoder.(*geocode.Cached); ok {
				cached.Flush()
			}
			zap.L().Info("caches flushed")
		}

		if warm {
			popular := env.gaz.PopularCached()
			zap.L().Info("popular cities cache warmed", zap.Int("cities", len(popular)))
		}

		if stats {
			s := env.gaz.PopularCacheStats()
			fmt.Printf("%-20s %8s %8s %8s %9s\n", "Cache", "Entries", "Hits", "Misses", "Hit Rate")
			fmt.Println("-------------------------------------------------------")
			fmt.Printf("%-20s %8d %8d %8d %8.1f%%\n", "popular_cities", s.Entries, s.Hits, s.Misses, s.HitRate*100)
			if cached, ok := env.geocoder.(*geocode.Cached); ok {
				g := cached.Stats()
				fmt.Printf("%-20s %8d %8d %8d %8.1f%%\n", "geocode", g.Entries, g.Hits, g.Misses, g.HitRate*100)
			}
		}

		return nil
	},
}

// optimizeActions resolves the requested cache actions. With no flags the
// command runs a full flush-and-warm cycle and prints stats.
func optimizeActions(flush, warm, stats bool) (bool, bool, bool) {
	if !flush && !warm && !stats {
		return true, true, true
	}
	return flush, warm, stats
}

func init() {
	optimizeCmd.Flags().Bool("warm", false, "pre-compute the popular cities cache")
	optimizeCmd.Flags().Bool("flush", false, "invalidate all caches")
	optimizeCmd.Flags().Bool("stats", false, "print cache counters")
	rootCmd.AddCommand(optimizeCmd)
}
