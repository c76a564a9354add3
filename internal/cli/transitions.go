package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/food-rescue-api/internal/models"
	"github.com/noah-isme/food-rescue-api/internal/service"
)

func newTransitionsCmd() *cobra.Command {
	var (
		reentry string
		from    string
	)

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Print the donation transition table as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := models.DonationStatus(reentry)
			if target != models.DonationStatusApproved && target != models.DonationStatusApprovedF {
				return fmt.Errorf("re-entry status must be %q or %q, got %q",
					models.DonationStatusApproved, models.DonationStatusApprovedF, reentry)
			}
			edges := service.NewTransitionTable(target).Edges()
			if from != "" {
				status := models.DonationStatus(from)
				if !status.Valid() {
					return fmt.Errorf("unknown status %q", from)
				}
				filtered := edges[:0]
				for _, e := range edges {
					if e.From == status {
						filtered = append(filtered, e)
					}
				}
				edges = filtered
			}
			return writeYAML(cmd.OutOrStdout(), map[string]interface{}{
				"reentry": target,
				"edges":   edges,
			})
		},
	}
	cmd.Flags().StringVar(&reentry, "reentry", string(models.DonationStatusApprovedF), "status an accepted re-offer lands in")
	cmd.Flags().StringVar(&from, "from", "", "only show edges leaving this status")
	return cmd
}
