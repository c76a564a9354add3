package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/food-rescue-api/internal/repository"
	"github.com/noah-isme/food-rescue-api/internal/service"
	"github.com/noah-isme/food-rescue-api/pkg/cache"
	"github.com/noah-isme/food-rescue-api/pkg/config"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the shared geocode cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every shared geocode cache entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			client, err := cache.NewRedis(cmd.Context(), cfg.Redis)
			if err != nil {
				return err
			}
			repo := repository.NewCacheRepository(client)
			defer repo.Close()

			svc := service.NewCacheService(repo, service.GeocodeCachePrefix, cfg.GeocodeCache.TTL, nil, true)
			if err := svc.Invalidate(cmd.Context()); err != nil {
				return fmt.Errorf("purge geocode cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s*\n", service.GeocodeCachePrefix)
			return nil
		},
	})
	return cmd
}
