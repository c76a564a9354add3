package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/food-rescue-api/internal/service"
	"github.com/noah-isme/food-rescue-api/pkg/config"
	"github.com/noah-isme/food-rescue-api/pkg/geocoder"
)

type resolveResult struct {
	Input    string   `yaml:"input"`
	Found    bool     `yaml:"found"`
	Lat      *float64 `yaml:"lat,omitempty"`
	Lng      *float64 `yaml:"lng,omitempty"`
	Provider string   `yaml:"provider"`
}

func newResolveCmd() *cobra.Command {
	var (
		provider string
		baseURL  string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "resolve <address>",
		Short: "Resolve an address, coordinate pair or Plus Code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			geoCfg := cfg.Geocoder
			if provider != "" {
				geoCfg.Provider = provider
			}
			if baseURL != "" {
				geoCfg.BaseURL = baseURL
			}
			if timeout > 0 {
				geoCfg.Timeout = timeout
			}

			client := geocoder.New(geoCfg)
			var opts []service.GeoMatchingOption
			if client.SupportsPlusCodes() {
				opts = append(opts, service.WithPlusCodeDecoder(client))
			}
			svc := service.NewGeoMatchingService(client, service.GeoMatchingConfig{}, nil, opts...)

			point, err := svc.ResolveCoordinates(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("resolve %q: %w", args[0], err)
			}
			out := resolveResult{Input: args[0], Provider: geoCfg.Provider}
			if point != nil {
				out.Found = true
				out.Lat, out.Lng = &point.Lat, &point.Lng
			}
			return writeYAML(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "geocoder provider (nominatim or google)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "override the geocoder base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "request timeout")
	return cmd
}
