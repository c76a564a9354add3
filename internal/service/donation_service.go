package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/food-rescue-api/internal/dto"
	"github.com/noah-isme/food-rescue-api/internal/models"
	appErrors "github.com/noah-isme/food-rescue-api/pkg/errors"
	"github.com/noah-isme/food-rescue-api/pkg/geo"
	"github.com/noah-isme/food-rescue-api/pkg/jobs"
)

// JobTypeGeocodeDonation backfills coordinates for a freshly created donation.
const JobTypeGeocodeDonation = "geocode_donation"

const (
	defaultVolunteerRadiusKm = 20
	defaultNGORadiusKm       = 15
	defaultDonationPageSize  = 20
	maxDonationPageSize      = 100
)

type donationStore interface {
	Create(ctx context.Context, donation *models.Donation) error
	GetByID(ctx context.Context, id string) (*models.Donation, error)
	List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error)
	UpdateStatus(ctx context.Context, update models.DonationUpdate) (*models.Donation, error)
	UpdateCoordinates(ctx context.Context, id string, point geo.Point, updatedAt time.Time) error
}

type candidateLister interface {
	ListCandidates(ctx context.Context, kind models.CandidateKind) ([]models.Candidate, error)
}

type notificationWriter interface {
	InsertNotifications(ctx context.Context, notifications []models.Notification) error
}

type proximityMatcher interface {
	ResolveCoordinates(ctx context.Context, raw string) (*geo.Point, error)
	FindWithinRadius(ctx context.Context, reference geo.Point, candidates []models.Candidate, radiusKm float64) ([]models.RankedCandidate, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// DonationServiceConfig carries the matching policy.
type DonationServiceConfig struct {
	VolunteerRadiusKm float64
	NGORadiusKm       float64
}

// TransitionOptions carries the auxiliary fields some edges need.
type TransitionOptions struct {
	VolunteerID string
	NGOID       string
}

// OfferResult reports the outcome of re-offering a declined donation.
// NoCandidates is set, and the donation left untouched, when no NGO is in range.
type OfferResult struct {
	Donation     *models.Donation
	Offered      []models.RankedCandidate
	RadiusKm     float64
	NoCandidates bool
}

// DonationService drives donations through their lifecycle.
type DonationService struct {
	store      donationStore
	candidates candidateLister
	notifier   notificationWriter
	geo        proximityMatcher
	table      *TransitionTable
	backfill   jobEnqueuer
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        DonationServiceConfig
	now        func() time.Time
}

// NewDonationService wires the lifecycle engine.
func NewDonationService(
	store donationStore,
	candidates candidateLister,
	notifier notificationWriter,
	matcher proximityMatcher,
	table *TransitionTable,
	backfill jobEnqueuer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg DonationServiceConfig,
) *DonationService {
	if table == nil {
		table = NewTransitionTable(models.DonationStatusApprovedF)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.VolunteerRadiusKm <= 0 {
		cfg.VolunteerRadiusKm = defaultVolunteerRadiusKm
	}
	if cfg.NGORadiusKm <= 0 {
		cfg.NGORadiusKm = defaultNGORadiusKm
	}
	return &DonationService{
		store:      store,
		candidates: candidates,
		notifier:   notifier,
		geo:        matcher,
		table:      table,
		backfill:   backfill,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Table exposes the transition table in use.
func (s *DonationService) Table() *TransitionTable {
	return s.table
}

// Create records a new pending donation for the calling donor.
func (s *DonationService) Create(ctx context.Context, req dto.CreateDonationRequest, actor models.Actor) (*models.Donation, error) {
	if actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleDonor && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only donors can submit donations")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid donation payload")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "latitude and longitude must be provided together")
	}
	if req.ProducingTime != nil && req.LastingTime != nil && !req.LastingTime.After(*req.ProducingTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lastingTime must be after producingTime")
	}

	now := s.now()
	donation := &models.Donation{
		ID:            uuid.NewString(),
		Description:   strings.TrimSpace(req.Description),
		FoodTypes:     req.FoodTypes,
		Quantity:      strings.TrimSpace(req.Quantity),
		Instructions:  strings.TrimSpace(req.Instructions),
		DonorName:     strings.TrimSpace(req.DonorName),
		DonorContact:  strings.TrimSpace(req.DonorContact),
		Images:        req.Images,
		Location:      strings.TrimSpace(req.Location),
		ProducingTime: req.ProducingTime,
		LastingTime:   req.LastingTime,
		Status:        models.DonationStatusPending,
		DonorID:       actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Latitude != nil {
		donation.SetPoint(geo.Point{Lat: *req.Latitude, Lng: *req.Longitude})
	} else if p, ok := geo.ParsePoint(donation.Location); ok {
		donation.SetPoint(p)
	}

	if err := s.store.Create(ctx, donation); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to create donation")
	}

	notice := []models.Notification{{
		ID:         uuid.NewString(),
		Title:      "New donation",
		Message:    fmt.Sprintf("%s submitted %s.", donorLabel(donation), describe(donation)),
		For:        models.AudienceAdmin,
		Type:       models.NotificationNewDonation,
		DonationID: donation.ID,
		CreatedAt:  now,
	}}
	if err := s.notifier.InsertNotifications(ctx, notice); err != nil {
		s.logger.Warn("failed to notify admins of new donation", zap.String("donation_id", donation.ID), zap.Error(err))
	} else {
		s.metrics.RecordNotifications(notice)
	}

	if donation.Coordinates == nil && s.backfill != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: JobTypeGeocodeDonation, Payload: donation.ID}
		if err := s.backfill.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue geocode backfill", zap.String("donation_id", donation.ID), zap.Error(err))
		}
	}

	s.logger.Info("donation created", zap.String("donation_id", donation.ID), zap.String("donor_id", actor.UserID))
	return donation, nil
}

// Get returns a donation visible to the actor.
func (s *DonationService) Get(ctx context.Context, id string, actor models.Actor) (*models.Donation, error) {
	donation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(donation, actor) {
		return nil, appErrors.ErrForbidden
	}
	return donation, nil
}

// List returns donations scoped to the actor's role.
func (s *DonationService) List(ctx context.Context, query dto.DonationQuery, actor models.Actor) ([]models.Donation, *models.Pagination, error) {
	if actor.UserID == "" {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.DonationFilter{Limit: query.Limit, Offset: query.Offset}
	if filter.Limit <= 0 {
		filter.Limit = defaultDonationPageSize
	}
	if filter.Limit > maxDonationPageSize {
		filter.Limit = maxDonationPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	for _, raw := range query.Status {
		status := models.DonationStatus(strings.TrimSpace(raw))
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", raw))
		}
		filter.Status = append(filter.Status, status)
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleDonor:
		filter.DonorID = actor.UserID
	case models.RoleReceiver:
		filter.NGOID = actor.UserID
		filter.OrStatus = []models.DonationStatus{models.DonationStatusApproved, models.DonationStatusPendingOtherNGO}
	case models.RoleVolunteer:
		filter.VolunteerID = actor.UserID
		filter.OrStatus = []models.DonationStatus{models.DonationStatusApprovedF}
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to list donations")
	}
	for i := range items {
		items[i].HydrateCoordinates()
	}
	return items, &models.Pagination{Limit: filter.Limit, Offset: filter.Offset, Count: len(items)}, nil
}

// Transition moves a donation to target. Re-requesting the current status is
// a successful no-op that emits nothing. The write is conditional on the
// status read here, so a concurrent writer makes this call fail rather than
// being overwritten.
func (s *DonationService) Transition(ctx context.Context, id string, target models.DonationStatus, actor models.Actor, opts TransitionOptions) (*models.Donation, error) {
	if actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if !target.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", target))
	}

	donation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(donation, actor) {
		return nil, appErrors.ErrForbidden
	}

	from := donation.Status
	if from == target {
		if target == models.DonationStatusVolunteerAssigned && opts.VolunteerID != "" &&
			donation.VolunteerID != nil && *donation.VolunteerID != opts.VolunteerID {
			return nil, appErrors.ErrAlreadyAssigned
		}
		return donation, nil
	}

	if !s.table.Allowed(from, target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move donation from %q to %q", from, target))
	}
	if !s.table.Permits(from, target, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s cannot move donation to %q", actor.Role, target))
	}
	if s.table.ViaOffer(from, target) {
		result, err := s.OfferToOtherNGOs(ctx, id, actor)
		if err != nil {
			return nil, err
		}
		if result.NoCandidates {
			return nil, appErrors.ErrNoCandidates
		}
		return result.Donation, nil
	}

	update, err := s.buildUpdate(donation, target, actor, opts)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateStatus(ctx, update)
	if err != nil {
		current, conflictErr := s.resolveWriteConflict(ctx, update, err)
		if conflictErr != nil {
			return nil, conflictErr
		}
		current.HydrateCoordinates()
		return current, nil
	}
	updated.HydrateCoordinates()

	notifications := s.table.Notifications(from, target, updated, update.UpdatedAt)
	if err := s.emit(ctx, notifications); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(from, target)

	s.logger.Info("donation transitioned",
		zap.String("donation_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.UserID),
		zap.String("actor_role", string(actor.Role)),
		zap.Int("notifications", len(notifications)),
	)
	return updated, nil
}

// MatchVolunteers ranks volunteers near a donation that is ready for
// assignment. It does not change the donation.
func (s *DonationService) MatchVolunteers(ctx context.Context, id string, radiusKm float64, actor models.Actor) ([]models.RankedCandidate, float64, error) {
	if actor.UserID == "" {
		return nil, 0, appErrors.ErrUnauthorized
	}
	if radiusKm <= 0 {
		radiusKm = s.cfg.VolunteerRadiusKm
	}

	donation, err := s.load(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleReceiver:
		if !ownsNGO(donation, actor) {
			return nil, 0, appErrors.ErrForbidden
		}
	default:
		return nil, 0, appErrors.ErrForbidden
	}
	if donation.Status != models.DonationStatusApprovedF {
		return nil, 0, appErrors.Clone(appErrors.ErrPreconditionFailed, "donation is not awaiting volunteer assignment")
	}

	reference, err := s.donationPoint(ctx, donation)
	if err != nil {
		return nil, 0, err
	}
	volunteers, err := s.candidates.ListCandidates(ctx, models.CandidateVolunteer)
	if err != nil {
		return nil, 0, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to list volunteers")
	}
	ranked, err := s.geo.FindWithinRadius(ctx, reference, volunteers, radiusKm)
	if err != nil {
		return nil, 0, err
	}
	return ranked, radiusKm, nil
}

// AssignVolunteer moves an approvedF donation to "volunteer is assigned".
// Two racing assignments of different volunteers yield one success and one
// ErrAlreadyAssigned; a repeated assignment of the same volunteer succeeds.
func (s *DonationService) AssignVolunteer(ctx context.Context, id, volunteerID string, actor models.Actor) (*models.Donation, error) {
	return s.Transition(ctx, id, models.DonationStatusVolunteerAssigned, actor, TransitionOptions{VolunteerID: volunteerID})
}

// OfferToOtherNGOs re-offers a declined donation to NGOs within the NGO
// radius, excluding the one that declined it.
func (s *DonationService) OfferToOtherNGOs(ctx context.Context, id string, actor models.Actor) (*OfferResult, error) {
	if actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	donation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from, target := donation.Status, models.DonationStatusPendingOtherNGO
	if !s.table.Allowed(from, target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot re-offer a donation in status %q", from))
	}
	if !s.table.Permits(from, target, actor.Role) || !canView(donation, actor) {
		return nil, appErrors.ErrForbidden
	}

	reference, err := s.donationPoint(ctx, donation)
	if err != nil {
		return nil, err
	}
	receivers, err := s.candidates.ListCandidates(ctx, models.CandidateReceiver)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to list receivers")
	}
	eligible := make([]models.Candidate, 0, len(receivers))
	for _, r := range receivers {
		if donation.NGOID != nil && r.ID == *donation.NGOID {
			continue
		}
		eligible = append(eligible, r)
	}
	ranked, err := s.geo.FindWithinRadius(ctx, reference, eligible, s.cfg.NGORadiusKm)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		s.logger.Info("no receivers in range for re-offer",
			zap.String("donation_id", id), zap.Float64("radius_km", s.cfg.NGORadiusKm))
		return &OfferResult{Donation: donation, RadiusKm: s.cfg.NGORadiusKm, NoCandidates: true}, nil
	}

	now := s.now()
	update := models.DonationUpdate{
		ID:             id,
		ExpectedStatus: from,
		Status:         target,
		ClearNGOID:     true,
		UpdatedAt:      now,
	}
	updated, err := s.store.UpdateStatus(ctx, update)
	if err != nil {
		_, conflictErr := s.resolveWriteConflict(ctx, update, err)
		return nil, conflictErr
	}
	updated.HydrateCoordinates()

	notifications := s.table.Notifications(from, target, updated, now)
	for _, r := range ranked {
		recipient := r.ID
		notifications = append(notifications, models.Notification{
			Title:       "Donation offer nearby",
			Message:     fmt.Sprintf("%s is available %.1f km from you. Accept it to arrange pickup.", describe(updated), r.DistanceKm),
			For:         models.AudienceReceiver,
			Type:        models.NotificationDonationOffer,
			DonationID:  id,
			RecipientID: &recipient,
			CreatedAt:   now,
		})
	}
	if err := s.emit(ctx, notifications); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(from, target)

	s.logger.Info("donation re-offered",
		zap.String("donation_id", id), zap.Int("receivers", len(ranked)), zap.String("actor_id", actor.UserID))
	return &OfferResult{Donation: updated, Offered: ranked, RadiusKm: s.cfg.NGORadiusKm}, nil
}

// HandleGeocodeJob resolves and stores coordinates for a donation. Transient
// geocoder failures are returned so the queue retries them.
func (s *DonationService) HandleGeocodeJob(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok || id == "" {
		s.logger.Warn("discarding malformed geocode job", zap.String("job_id", job.ID))
		return nil
	}
	donation, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if _, ok := donation.Point(); ok {
		return nil
	}
	point, err := s.geo.ResolveCoordinates(ctx, donation.Location)
	if err != nil {
		return err
	}
	if point == nil {
		s.logger.Info("donation location could not be geocoded", zap.String("donation_id", id))
		return nil
	}
	return s.store.UpdateCoordinates(ctx, id, *point, s.now())
}

func (s *DonationService) load(ctx context.Context, id string) (*models.Donation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "donation id is required")
	}
	donation, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to load donation")
	}
	donation.HydrateCoordinates()
	return donation, nil
}

func (s *DonationService) buildUpdate(d *models.Donation, target models.DonationStatus, actor models.Actor, opts TransitionOptions) (models.DonationUpdate, error) {
	update := models.DonationUpdate{
		ID:             d.ID,
		ExpectedStatus: d.Status,
		Status:         target,
		UpdatedAt:      s.now(),
	}
	if err := authorizeEdge(d, target, actor); err != nil {
		return update, err
	}

	switch {
	case target == models.DonationStatusVolunteerAssigned:
		volunteerID := strings.TrimSpace(opts.VolunteerID)
		if actor.Role == models.RoleVolunteer {
			if volunteerID == "" {
				volunteerID = actor.UserID
			}
			if volunteerID != actor.UserID {
				return update, appErrors.Clone(appErrors.ErrForbidden, "volunteers can only assign themselves")
			}
		}
		if volunteerID == "" {
			return update, appErrors.Clone(appErrors.ErrValidation, "volunteerId is required")
		}
		update.SetVolunteerID = &volunteerID
	case target == models.DonationStatusPendingOtherNGO:
		update.ClearNGOID = true
	case d.Status == models.DonationStatusPendingOtherNGO && target == s.table.Reentry():
		ngoID := strings.TrimSpace(opts.NGOID)
		if actor.Role == models.RoleReceiver {
			ngoID = actor.UserID
		}
		if ngoID == "" {
			return update, appErrors.Clone(appErrors.ErrValidation, "ngoId is required")
		}
		update.SetNGOID = &ngoID
	case d.Status == models.DonationStatusPending && target == models.DonationStatusApproved:
		if ngoID := strings.TrimSpace(opts.NGOID); ngoID != "" {
			update.SetNGOID = &ngoID
		}
	case d.Status == models.DonationStatusApproved && actor.Role == models.RoleReceiver && d.NGOID == nil:
		ngoID := actor.UserID
		update.SetNGOID = &ngoID
	}
	return update, nil
}

// resolveWriteConflict maps a failed conditional write onto the reason it
// failed. A concurrent write that already produced the requested assignment
// returns the stored donation and a nil error.
func (s *DonationService) resolveWriteConflict(ctx context.Context, update models.DonationUpdate, writeErr error) (*models.Donation, error) {
	if !errors.Is(writeErr, sql.ErrNoRows) {
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, writeErr, "failed to update donation status")
	}
	current, err := s.store.GetByID(ctx, update.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, err, "failed to reload donation")
	}
	if update.Status == models.DonationStatusVolunteerAssigned && current.VolunteerID != nil && current.Status.HasVolunteer() {
		if current.Status == update.Status && update.SetVolunteerID != nil && *current.VolunteerID == *update.SetVolunteerID {
			return current, nil
		}
		return nil, appErrors.ErrAlreadyAssigned
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("donation status changed concurrently to %q", current.Status))
}

func (s *DonationService) emit(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	for i := range notifications {
		if notifications[i].ID == "" {
			notifications[i].ID = uuid.NewString()
		}
	}
	if err := s.notifier.InsertNotifications(ctx, notifications); err != nil {
		return appErrors.WrapAs(appErrors.ErrPersistence, err, "status saved but notifications failed")
	}
	s.metrics.RecordNotifications(notifications)
	return nil
}

// donationPoint returns stored coordinates or resolves the free-text location,
// persisting the result on a best-effort basis.
func (s *DonationService) donationPoint(ctx context.Context, d *models.Donation) (geo.Point, error) {
	if p, ok := d.Point(); ok {
		return p, nil
	}
	point, err := s.geo.ResolveCoordinates(ctx, d.Location)
	if err != nil {
		return geo.Point{}, err
	}
	if point == nil {
		return geo.Point{}, appErrors.Clone(appErrors.ErrGeocodeNoResult, "donation location could not be geocoded")
	}
	if err := s.store.UpdateCoordinates(ctx, d.ID, *point, s.now()); err != nil {
		s.logger.Warn("failed to store donation coordinates", zap.String("donation_id", d.ID), zap.Error(err))
	}
	d.SetPoint(*point)
	return *point, nil
}

// authorizeEdge applies ownership rules on top of the role table.
func authorizeEdge(d *models.Donation, target models.DonationStatus, actor models.Actor) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleDonor:
		if d.DonorID != actor.UserID {
			return appErrors.ErrForbidden
		}
	case models.RoleReceiver:
		// any receiver may claim an open re-offer
		if d.Status == models.DonationStatusPendingOtherNGO {
			return nil
		}
		if d.NGOID != nil && *d.NGOID != actor.UserID {
			return appErrors.ErrForbidden
		}
	case models.RoleVolunteer:
		if target == models.DonationStatusVolunteerAssigned {
			return nil
		}
		if d.VolunteerID == nil || *d.VolunteerID != actor.UserID {
			return appErrors.ErrForbidden
		}
	default:
		return appErrors.ErrForbidden
	}
	return nil
}

func ownsNGO(d *models.Donation, actor models.Actor) bool {
	return d.NGOID != nil && *d.NGOID == actor.UserID
}

func canView(d *models.Donation, actor models.Actor) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDonor:
		return d.DonorID == actor.UserID
	case models.RoleReceiver:
		if d.Status == models.DonationStatusPendingOtherNGO {
			return true
		}
		// an approved donation without a routed NGO is open to any receiver
		if d.NGOID == nil {
			return d.Status == models.DonationStatusApproved
		}
		return *d.NGOID == actor.UserID
	case models.RoleVolunteer:
		if d.VolunteerID != nil && *d.VolunteerID == actor.UserID {
			return true
		}
		return d.Status == models.DonationStatusApprovedF
	}
	return false
}
