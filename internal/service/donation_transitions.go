package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/food-rescue-api/internal/models"
)

// notifySpec describes a single notification emitted when a transition lands.
type notifySpec struct {
	audience models.Audience
	title    string
	message  func(d *models.Donation) string
}

type transitionRule struct {
	roles    []models.UserRole
	notify   []notifySpec
	viaOffer bool
}

// TransitionEdge is an exported, read-only view of one allowed edge.
type TransitionEdge struct {
	From     models.DonationStatus `yaml:"from" json:"from"`
	To       models.DonationStatus `yaml:"to" json:"to"`
	Roles    []models.UserRole     `yaml:"roles" json:"roles"`
	Notifies []models.Audience     `yaml:"notifies" json:"notifies"`
	ViaOffer bool                  `yaml:"viaOffer,omitempty" json:"viaOffer,omitempty"`
}

// TransitionTable is the single source of truth for allowed status changes
// and the notifications each change emits. Admins may drive every edge.
type TransitionTable struct {
	edges   map[models.DonationStatus]map[models.DonationStatus]transitionRule
	reentry models.DonationStatus
}

// NewTransitionTable builds the table. reentry selects where a donation goes
// once a new NGO accepts a re-offer; only approved and approvedF are accepted,
// anything else falls back to approvedF.
func NewTransitionTable(reentry models.DonationStatus) *TransitionTable {
	if reentry != models.DonationStatusApproved && reentry != models.DonationStatusApprovedF {
		reentry = models.DonationStatusApprovedF
	}
	t := &TransitionTable{
		edges:   make(map[models.DonationStatus]map[models.DonationStatus]transitionRule),
		reentry: reentry,
	}

	t.add(models.DonationStatusPending, models.DonationStatusApproved, nil,
		notifySpec{models.AudienceReceiver, "New donation available", func(d *models.Donation) string {
			return fmt.Sprintf("A donation of %s from %s is waiting for your response.", describe(d), donorLabel(d))
		}})
	t.add(models.DonationStatusPending, models.DonationStatusRejected, nil,
		notifySpec{models.AudienceDonor, "Donation rejected", func(d *models.Donation) string {
			return fmt.Sprintf("Your donation of %s was not approved.", describe(d))
		}})
	t.add(models.DonationStatusPending, models.DonationStatusCancelled, roles(models.RoleDonor),
		cancelledNotice())

	t.add(models.DonationStatusApproved, models.DonationStatusApprovedF, roles(models.RoleReceiver),
		notifySpec{models.AudienceAdmin, "Donation accepted", func(d *models.Donation) string {
			return fmt.Sprintf("The receiver accepted %s and it is ready for volunteer assignment.", describe(d))
		}},
		notifySpec{models.AudienceDonor, "Donation accepted", func(d *models.Donation) string {
			return fmt.Sprintf("Good news, a receiver accepted your donation of %s.", describe(d))
		}})
	t.add(models.DonationStatusApproved, models.DonationStatusRejectedF, roles(models.RoleReceiver),
		notifySpec{models.AudienceDonor, "Receiver declined", func(d *models.Donation) string {
			return fmt.Sprintf("The receiver declined %s. You can offer it to other NGOs nearby or cancel it.", describe(d))
		}})

	t.add(models.DonationStatusRejectedF, models.DonationStatusPendingOtherNGO, roles(models.RoleDonor),
		notifySpec{models.AudienceAdmin, "Donation re-offered", func(d *models.Donation) string {
			return fmt.Sprintf("%s was re-offered to other NGOs.", describe(d))
		}})
	// only reachable through a proximity search that found at least one NGO
	t.markViaOffer(models.DonationStatusRejectedF, models.DonationStatusPendingOtherNGO)
	t.add(models.DonationStatusRejectedF, models.DonationStatusCancelled, roles(models.RoleDonor),
		cancelledNotice())

	reentryNotices := []notifySpec{
		{models.AudienceAdmin, "Re-offered donation accepted", func(d *models.Donation) string {
			return fmt.Sprintf("Another NGO accepted %s.", describe(d))
		}},
		{models.AudienceDonor, "Donation accepted", func(d *models.Donation) string {
			return fmt.Sprintf("Another NGO accepted your donation of %s.", describe(d))
		}},
	}
	if reentry == models.DonationStatusApproved {
		// entering approved always asks the receiver to respond
		reentryNotices = append(reentryNotices, notifySpec{models.AudienceReceiver, "Donation awaiting confirmation", func(d *models.Donation) string {
			return fmt.Sprintf("You claimed %s. Confirm it to make it ready for volunteer assignment.", describe(d))
		}})
	}
	t.add(models.DonationStatusPendingOtherNGO, reentry, roles(models.RoleReceiver), reentryNotices...)
	t.add(models.DonationStatusPendingOtherNGO, models.DonationStatusCancelled, roles(models.RoleDonor),
		cancelledNotice())

	t.add(models.DonationStatusApprovedF, models.DonationStatusVolunteerAssigned, roles(models.RoleReceiver, models.RoleVolunteer),
		notifySpec{models.AudienceAdmin, "Volunteer assigned", func(d *models.Donation) string {
			return fmt.Sprintf("A volunteer was assigned to %s.", describe(d))
		}},
		notifySpec{models.AudienceDonor, "Volunteer assigned", func(d *models.Donation) string {
			return fmt.Sprintf("A volunteer will pick up your donation of %s.", describe(d))
		}},
		notifySpec{models.AudienceReceiver, "Volunteer assigned", func(d *models.Donation) string {
			return fmt.Sprintf("A volunteer is assigned to deliver %s to you.", describe(d))
		}})

	t.add(models.DonationStatusVolunteerAssigned, models.DonationStatusOnTheWayToReceive, roles(models.RoleVolunteer),
		notifySpec{models.AudienceDonor, "Volunteer on the way", func(d *models.Donation) string {
			return fmt.Sprintf("The volunteer is on the way to collect %s.", describe(d))
		}})
	t.add(models.DonationStatusOnTheWayToReceive, models.DonationStatusFoodCollected, roles(models.RoleVolunteer),
		notifySpec{models.AudienceDonor, "Food collected", func(d *models.Donation) string {
			return fmt.Sprintf("The volunteer collected %s. Thank you!", describe(d))
		}},
		notifySpec{models.AudienceReceiver, "Food collected", func(d *models.Donation) string {
			return fmt.Sprintf("%s has been collected from the donor.", describe(d))
		}})
	t.add(models.DonationStatusFoodCollected, models.DonationStatusOnTheWayToDeliver, roles(models.RoleVolunteer),
		notifySpec{models.AudienceReceiver, "Delivery on the way", func(d *models.Donation) string {
			return fmt.Sprintf("The volunteer is on the way to deliver %s.", describe(d))
		}})
	t.add(models.DonationStatusOnTheWayToDeliver, models.DonationStatusDelivered, roles(models.RoleVolunteer),
		notifySpec{models.AudienceReceiver, "Food delivered", func(d *models.Donation) string {
			return fmt.Sprintf("%s was delivered. Please confirm receipt.", describe(d))
		}},
		notifySpec{models.AudienceAdmin, "Food delivered", func(d *models.Donation) string {
			return fmt.Sprintf("%s was delivered to the receiver.", describe(d))
		}})
	t.add(models.DonationStatusDelivered, models.DonationStatusReceiverConfirmed, roles(models.RoleReceiver),
		notifySpec{models.AudienceDonor, "Donation received", func(d *models.Donation) string {
			return fmt.Sprintf("The receiver confirmed your donation of %s arrived.", describe(d))
		}},
		notifySpec{models.AudienceVolunteer, "Delivery confirmed", func(d *models.Donation) string {
			return fmt.Sprintf("The receiver confirmed delivery of %s. Thanks for volunteering!", describe(d))
		}},
		notifySpec{models.AudienceAdmin, "Donation completed", func(d *models.Donation) string {
			return fmt.Sprintf("%s completed its journey.", describe(d))
		}})

	return t
}

func (t *TransitionTable) add(from, to models.DonationStatus, allowed []models.UserRole, notify ...notifySpec) {
	if t.edges[from] == nil {
		t.edges[from] = make(map[models.DonationStatus]transitionRule)
	}
	t.edges[from][to] = transitionRule{roles: allowed, notify: notify}
}

func (t *TransitionTable) markViaOffer(from, to models.DonationStatus) {
	rule := t.edges[from][to]
	rule.viaOffer = true
	t.edges[from][to] = rule
}

func (t *TransitionTable) rule(from, to models.DonationStatus) (transitionRule, bool) {
	rule, ok := t.edges[from][to]
	return rule, ok
}

// Allowed reports whether from -> to is an edge of the table.
func (t *TransitionTable) Allowed(from, to models.DonationStatus) bool {
	_, ok := t.rule(from, to)
	return ok
}

// Permits reports whether role may drive from -> to.
func (t *TransitionTable) Permits(from, to models.DonationStatus, role models.UserRole) bool {
	rule, ok := t.rule(from, to)
	if !ok {
		return false
	}
	if role == models.RoleAdmin {
		return true
	}
	for _, r := range rule.roles {
		if r == role {
			return true
		}
	}
	return false
}

// ViaOffer reports whether from -> to is only taken by re-offering the
// donation to nearby NGOs.
func (t *TransitionTable) ViaOffer(from, to models.DonationStatus) bool {
	rule, ok := t.rule(from, to)
	return ok && rule.viaOffer
}

// Reentry is the status a re-offered donation returns to.
func (t *TransitionTable) Reentry() models.DonationStatus {
	return t.reentry
}

// Next lists the statuses reachable from from.
func (t *TransitionTable) Next(from models.DonationStatus) []models.DonationStatus {
	next := make([]models.DonationStatus, 0, len(t.edges[from]))
	for to := range t.edges[from] {
		next = append(next, to)
	}
	sort.Slice(next, func(i, j int) bool { return statusOrder(next[i]) < statusOrder(next[j]) })
	return next
}

// Edges returns every edge ordered by workflow position.
func (t *TransitionTable) Edges() []TransitionEdge {
	edges := make([]TransitionEdge, 0)
	for _, from := range models.AllDonationStatuses {
		for _, to := range t.Next(from) {
			rule := t.edges[from][to]
			audiences := make([]models.Audience, 0, len(rule.notify))
			for _, n := range rule.notify {
				audiences = append(audiences, n.audience)
			}
			edges = append(edges, TransitionEdge{
				From:     from,
				To:       to,
				Roles:    append([]models.UserRole{models.RoleAdmin}, rule.roles...),
				Notifies: audiences,
				ViaOffer: rule.viaOffer,
			})
		}
	}
	return edges
}

// Notifications renders the notifications for landing in to. It is a pure
// function of the edge and the donation as persisted after the write.
func (t *TransitionTable) Notifications(from, to models.DonationStatus, d *models.Donation, now time.Time) []models.Notification {
	rule, ok := t.rule(from, to)
	if !ok || d == nil {
		return nil
	}
	out := make([]models.Notification, 0, len(rule.notify))
	for _, spec := range rule.notify {
		out = append(out, models.Notification{
			Title:       spec.title,
			Message:     spec.message(d),
			For:         spec.audience,
			Type:        models.NotificationStatusUpdate,
			DonationID:  d.ID,
			RecipientID: recipientFor(spec.audience, d),
			CreatedAt:   now,
		})
	}
	return out
}

func recipientFor(audience models.Audience, d *models.Donation) *string {
	switch audience {
	case models.AudienceDonor:
		if d.DonorID != "" {
			id := d.DonorID
			return &id
		}
	case models.AudienceReceiver:
		return copyString(d.NGOID)
	case models.AudienceVolunteer:
		return copyString(d.VolunteerID)
	}
	return nil
}

func copyString(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	c := *v
	return &c
}

func cancelledNotice() notifySpec {
	return notifySpec{models.AudienceAdmin, "Donation cancelled", func(d *models.Donation) string {
		return fmt.Sprintf("The donor cancelled %s.", describe(d))
	}}
}

func roles(r ...models.UserRole) []models.UserRole {
	return r
}

func describe(d *models.Donation) string {
	switch {
	case d.Description != "" && d.Quantity != "":
		return fmt.Sprintf("%q (%s)", d.Description, d.Quantity)
	case d.Description != "":
		return fmt.Sprintf("%q", d.Description)
	default:
		return "donation " + d.ID
	}
}

func donorLabel(d *models.Donation) string {
	if d.DonorName != "" {
		return d.DonorName
	}
	return "a donor"
}

func statusOrder(s models.DonationStatus) int {
	for i, known := range models.AllDonationStatuses {
		if known == s {
			return i
		}
	}
	return len(models.AllDonationStatuses)
}
