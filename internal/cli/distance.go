package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/noah-isme/food-rescue-api/pkg/geo"
)

func newDistanceCmd() *cobra.Command {
	var within float64

	cmd := &cobra.Command{
		Use:   "distance <lat,lng> <lat,lng>",
		Short: "Great-circle distance in kilometres",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := geo.ParseLatLng(args[0])
			if err != nil {
				return err
			}
			b, err := geo.ParseLatLng(args[1])
			if err != nil {
				return err
			}
			km := geo.DistanceKm(a, b)
			out := map[string]interface{}{
				"from":       a.String(),
				"to":         b.String(),
				"distanceKm": math.Round(km*1000) / 1000,
			}
			if cmd.Flags().Changed("within") {
				out["radiusKm"] = within
				out["withinRadius"] = km <= within
			}
			if err := writeYAML(cmd.OutOrStdout(), out); err != nil {
				return fmt.Errorf("write distance: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&within, "within", 0, "also report whether the distance is inside this radius")
	return cmd
}
