package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/food-rescue-api/internal/models"
)

func TestTransitionTableReentryPolicy(t *testing.T) {
	table := NewTransitionTable(models.DonationStatusApproved)
	assert.Equal(t, models.DonationStatusApproved, table.Reentry())
	assert.True(t, table.Allowed(models.DonationStatusPendingOtherNGO, models.DonationStatusApproved))
	assert.False(t, table.Allowed(models.DonationStatusPendingOtherNGO, models.DonationStatusApprovedF))

	accepted := &models.Donation{ID: "don-1", DonorID: "donor-1", NGOID: strPtr("ngo-3")}
	notices := table.Notifications(models.DonationStatusPendingOtherNGO, models.DonationStatusApproved, accepted, time.Now())
	audiences := make([]models.Audience, 0, len(notices))
	for _, n := range notices {
		audiences = append(audiences, n.For)
		if n.For == models.AudienceReceiver {
			require.NotNil(t, n.RecipientID)
			assert.Equal(t, "ngo-3", *n.RecipientID)
		}
	}
	assert.ElementsMatch(t, []models.Audience{models.AudienceAdmin, models.AudienceDonor, models.AudienceReceiver}, audiences)

	fallback := NewTransitionTable(models.DonationStatus("bogus"))
	assert.Equal(t, models.DonationStatusApprovedF, fallback.Reentry())
	assert.True(t, fallback.Allowed(models.DonationStatusPendingOtherNGO, models.DonationStatusApprovedF))
}

func TestTransitionTableTerminalStatesHaveNoEdges(t *testing.T) {
	table := NewTransitionTable(models.DonationStatusApprovedF)
	for _, status := range models.AllDonationStatuses {
		if status.Terminal() {
			assert.Empty(t, table.Next(status), "terminal status %q", status)
		} else {
			assert.NotEmpty(t, table.Next(status), "non-terminal status %q", status)
		}
	}
}

func TestTransitionTablePermits(t *testing.T) {
	table := NewTransitionTable(models.DonationStatusApprovedF)

	assert.True(t, table.Permits(models.DonationStatusPending, models.DonationStatusApproved, models.RoleAdmin))
	assert.False(t, table.Permits(models.DonationStatusPending, models.DonationStatusApproved, models.RoleReceiver))
	assert.True(t, table.Permits(models.DonationStatusPending, models.DonationStatusCancelled, models.RoleDonor))
	assert.True(t, table.Permits(models.DonationStatusApprovedF, models.DonationStatusVolunteerAssigned, models.RoleVolunteer))
	assert.True(t, table.Permits(models.DonationStatusDelivered, models.DonationStatusReceiverConfirmed, models.RoleReceiver))
	assert.False(t, table.Permits(models.DonationStatusDelivered, models.DonationStatusReceiverConfirmed, models.RoleVolunteer))
	assert.False(t, table.Permits(models.DonationStatusPending, models.DonationStatusDelivered, models.RoleAdmin))
}

func TestTransitionTableNotifications(t *testing.T) {
	table := NewTransitionTable(models.DonationStatusApprovedF)
	ngo := "ngo-1"
	volunteer := "vol-1"
	donation := &models.Donation{
		ID:          "don-1",
		Description: "Vegetable biryani",
		Quantity:    "20 plates",
		DonorName:   "Hotel Sagar",
		DonorID:     "donor-1",
		NGOID:       &ngo,
		VolunteerID: &volunteer,
	}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	approved := table.Notifications(models.DonationStatusPending, models.DonationStatusApproved, donation, now)
	require.Len(t, approved, 1)
	assert.Equal(t, models.AudienceReceiver, approved[0].For)
	assert.Equal(t, models.NotificationStatusUpdate, approved[0].Type)
	assert.Equal(t, "don-1", approved[0].DonationID)
	require.NotNil(t, approved[0].RecipientID)
	assert.Equal(t, ngo, *approved[0].RecipientID)
	assert.Contains(t, approved[0].Message, "Hotel Sagar")
	assert.Equal(t, now, approved[0].CreatedAt)

	assigned := table.Notifications(models.DonationStatusApprovedF, models.DonationStatusVolunteerAssigned, donation, now)
	audiences := make([]models.Audience, 0, len(assigned))
	for _, n := range assigned {
		audiences = append(audiences, n.For)
	}
	assert.ElementsMatch(t, []models.Audience{models.AudienceAdmin, models.AudienceDonor, models.AudienceReceiver}, audiences)

	confirmed := table.Notifications(models.DonationStatusDelivered, models.DonationStatusReceiverConfirmed, donation, now)
	for _, n := range confirmed {
		switch n.For {
		case models.AudienceAdmin:
			assert.Nil(t, n.RecipientID)
		case models.AudienceVolunteer:
			require.NotNil(t, n.RecipientID)
			assert.Equal(t, volunteer, *n.RecipientID)
		case models.AudienceDonor:
			require.NotNil(t, n.RecipientID)
			assert.Equal(t, "donor-1", *n.RecipientID)
		}
	}

	assert.Nil(t, table.Notifications(models.DonationStatusPending, models.DonationStatusDelivered, donation, now))
}

func TestTransitionTableEdges(t *testing.T) {
	table := NewTransitionTable(models.DonationStatusApprovedF)
	edges := table.Edges()
	require.NotEmpty(t, edges)

	assert.Equal(t, models.DonationStatusPending, edges[0].From)
	for _, edge := range edges {
		assert.True(t, table.Allowed(edge.From, edge.To))
		assert.Contains(t, edge.Roles, models.RoleAdmin)
	}
	assert.Len(t, edges, 15)

	viaOffer := 0
	for _, edge := range edges {
		if edge.ViaOffer {
			viaOffer++
			assert.Equal(t, models.DonationStatusRejectedF, edge.From)
			assert.Equal(t, models.DonationStatusPendingOtherNGO, edge.To)
		}
	}
	assert.Equal(t, 1, viaOffer)
	assert.True(t, table.ViaOffer(models.DonationStatusRejectedF, models.DonationStatusPendingOtherNGO))
	assert.False(t, table.ViaOffer(models.DonationStatusApproved, models.DonationStatusApprovedF))
}
