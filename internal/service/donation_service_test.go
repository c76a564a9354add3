package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/food-rescue-api/internal/dto"
	"github.com/noah-isme/food-rescue-api/internal/models"
	appErrors "github.com/noah-isme/food-rescue-api/pkg/errors"
	"github.com/noah-isme/food-rescue-api/pkg/geo"
	"github.com/noah-isme/food-rescue-api/pkg/jobs"
)

var pune = geo.Point{Lat: 18.52, Lng: 73.85}

type donationStoreStub struct {
	mu          sync.Mutex
	donations   map[string]models.Donation
	created     []models.Donation
	listFilter  models.DonationFilter
	updates     int
	coordinates map[string]geo.Point
	updateErr   error
	getErr      error
}

func newDonationStoreStub(seed ...models.Donation) *donationStoreStub {
	s := &donationStoreStub{donations: map[string]models.Donation{}, coordinates: map[string]geo.Point{}}
	for _, d := range seed {
		s.donations[d.ID] = d
	}
	return s
}

func (s *donationStoreStub) Create(ctx context.Context, donation *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, *donation)
	s.donations[donation.ID] = *donation
	return nil
}

func (s *donationStoreStub) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	d, ok := s.donations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (s *donationStoreStub) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listFilter = filter
	out := make([]models.Donation, 0, len(s.donations))
	for _, d := range s.donations {
		out = append(out, d)
	}
	return out, nil
}

func (s *donationStoreStub) UpdateStatus(ctx context.Context, update models.DonationUpdate) (*models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	d, ok := s.donations[update.ID]
	if !ok || d.Status != update.ExpectedStatus {
		return nil, sql.ErrNoRows
	}
	d.Status = update.Status
	d.UpdatedAt = update.UpdatedAt
	if update.SetVolunteerID != nil {
		v := *update.SetVolunteerID
		d.VolunteerID = &v
	}
	if update.ClearNGOID {
		d.NGOID = nil
	}
	if update.SetNGOID != nil {
		v := *update.SetNGOID
		d.NGOID = &v
	}
	s.donations[d.ID] = d
	s.updates++
	return &d, nil
}

func (s *donationStoreStub) UpdateCoordinates(ctx context.Context, id string, point geo.Point, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coordinates[id] = point
	if d, ok := s.donations[id]; ok {
		d.SetPoint(point)
		s.donations[id] = d
	}
	return nil
}

func (s *donationStoreStub) status(id string) models.DonationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.donations[id].Status
}

type candidateListerStub struct {
	byKind map[models.CandidateKind][]models.Candidate
	err    error
}

func (s candidateListerStub) ListCandidates(ctx context.Context, kind models.CandidateKind) ([]models.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Candidate, 0, len(s.byKind[kind]))
	for _, c := range s.byKind[kind] {
		c.Kind = kind
		out = append(out, c)
	}
	return out, nil
}

type notificationWriterStub struct {
	mu    sync.Mutex
	sent  []models.Notification
	calls int
	err   error
}

func (s *notificationWriterStub) InsertNotifications(ctx context.Context, notifications []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, notifications...)
	return nil
}

type enqueuerStub struct {
	jobs []jobs.Job
}

func (s *enqueuerStub) Enqueue(job jobs.Job) error {
	s.jobs = append(s.jobs, job)
	return nil
}

type donationFixture struct {
	store    *donationStoreStub
	notifier *notificationWriterStub
	backfill *enqueuerStub
	geocoder *geocoderStub
	svc      *DonationService
}

func newDonationFixture(t *testing.T, candidates map[models.CandidateKind][]models.Candidate, seed ...models.Donation) *donationFixture {
	t.Helper()
	store := newDonationStoreStub(seed...)
	notifier := &notificationWriterStub{}
	backfill := &enqueuerStub{}
	gc := newGeocoderStub()
	matcher := NewGeoMatchingService(gc, GeoMatchingConfig{BatchSize: 5}, zap.NewNop())
	svc := NewDonationService(store, candidateListerStub{byKind: candidates}, notifier, matcher,
		NewTransitionTable(models.DonationStatusApprovedF), backfill, NewMetricsService(), nil, zap.NewNop(),
		DonationServiceConfig{VolunteerRadiusKm: 20, NGORadiusKm: 15})
	return &donationFixture{store: store, notifier: notifier, backfill: backfill, geocoder: gc, svc: svc}
}

func strPtr(v string) *string { return &v }

func donationAt(id string, status models.DonationStatus) models.Donation {
	d := models.Donation{
		ID:          id,
		Description: "Chapati",
		Quantity:    "40 pieces",
		DonorName:   "Annapurna Mess",
		DonorID:     "donor-1",
		Location:    "Shivaji Nagar, Pune",
		Status:      status,
	}
	d.SetPoint(pune)
	if status != models.DonationStatusPending && status != models.DonationStatusPendingOtherNGO {
		d.NGOID = strPtr("ngo-1")
	}
	if status.HasVolunteer() {
		d.VolunteerID = strPtr("vol-1")
	}
	return d
}

func candidateNorthOf(id string, km float64) models.Candidate {
	return models.Candidate{
		ID:        id,
		Name:      id,
		Latitude:  sql.NullFloat64{Float64: pune.Lat + km*kmLat, Valid: true},
		Longitude: sql.NullFloat64{Float64: pune.Lng, Valid: true},
	}
}

var (
	admin     = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	donor     = models.Actor{UserID: "donor-1", Role: models.RoleDonor}
	receiver  = models.Actor{UserID: "ngo-1", Role: models.RoleReceiver}
	volunteer = models.Actor{UserID: "vol-1", Role: models.RoleVolunteer}
)

func TestTransitionAllValidEdgesSucceed(t *testing.T) {
	table := NewTransitionTable(models.DonationStatusApprovedF)
	for _, edge := range table.Edges() {
		edge := edge
		if edge.ViaOffer {
			continue
		}
		t.Run(string(edge.From)+"->"+string(edge.To), func(t *testing.T) {
			fx := newDonationFixture(t, nil, donationAt("don-1", edge.From))

			updated, err := fx.svc.Transition(context.Background(), "don-1", edge.To, admin,
				TransitionOptions{VolunteerID: "vol-1", NGOID: "ngo-2"})
			require.NoError(t, err)
			assert.Equal(t, edge.To, updated.Status)
			assert.Equal(t, edge.To, fx.store.status("don-1"))
			assert.Equal(t, 1, fx.store.updates)
			assert.Len(t, fx.notifier.sent, len(edge.Notifies))
		})
	}
}

func TestTransitionInvalidPairsLeaveStatusUnchanged(t *testing.T) {
	table := NewTransitionTable(models.DonationStatusApprovedF)
	for _, from := range models.AllDonationStatuses {
		for _, to := range models.AllDonationStatuses {
			if from == to || table.Allowed(from, to) {
				continue
			}
			fx := newDonationFixture(t, nil, donationAt("don-1", from))

			_, err := fx.svc.Transition(context.Background(), "don-1", to, admin, TransitionOptions{VolunteerID: "vol-1"})
			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition), "%s -> %s: %v", from, to, err)
			assert.Equal(t, from, fx.store.status("don-1"))
			assert.Zero(t, fx.store.updates)
			assert.Zero(t, fx.notifier.calls)
		}
	}
}

func TestTransitionNoopEmitsNothing(t *testing.T) {
	for _, status := range models.AllDonationStatuses {
		fx := newDonationFixture(t, nil, donationAt("don-1", status))

		d, err := fx.svc.Transition(context.Background(), "don-1", status, admin, TransitionOptions{})
		require.NoError(t, err)
		assert.Equal(t, status, d.Status)
		assert.Zero(t, fx.store.updates)
		assert.Zero(t, fx.notifier.calls)
	}
}

func TestTransitionApproveNotifiesReceiver(t *testing.T) {
	fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusPending))

	d, err := fx.svc.Transition(context.Background(), "don-1", models.DonationStatusApproved, admin, TransitionOptions{NGOID: "ngo-7"})
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusApproved, d.Status)
	require.Len(t, fx.notifier.sent, 1)
	n := fx.notifier.sent[0]
	assert.Equal(t, models.AudienceReceiver, n.For)
	assert.NotEmpty(t, n.ID)
	require.NotNil(t, n.RecipientID)
	assert.Equal(t, "ngo-7", *n.RecipientID)
}

func TestTransitionErrors(t *testing.T) {
	t.Run("unknown donation", func(t *testing.T) {
		fx := newDonationFixture(t, nil)
		_, err := fx.svc.Transition(context.Background(), "missing", models.DonationStatusApproved, admin, TransitionOptions{})
		assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	})

	t.Run("unknown status", func(t *testing.T) {
		fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusPending))
		_, err := fx.svc.Transition(context.Background(), "don-1", "teleported", admin, TransitionOptions{})
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})

	t.Run("role not allowed on edge", func(t *testing.T) {
		fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusPending))
		_, err := fx.svc.Transition(context.Background(), "don-1", models.DonationStatusCancelled, receiver, TransitionOptions{})
		assert.True(t, errors.Is(err, appErrors.ErrForbidden))
		assert.Equal(t, models.DonationStatusPending, fx.store.status("don-1"))
	})

	t.Run("donor cannot cancel someone else's donation", func(t *testing.T) {
		fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusPending))
		other := models.Actor{UserID: "donor-2", Role: models.RoleDonor}
		_, err := fx.svc.Transition(context.Background(), "don-1", models.DonationStatusCancelled, other, TransitionOptions{})
		assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	})

	t.Run("store failure is a persistence error", func(t *testing.T) {
		fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusPending))
		fx.store.updateErr = errors.New("connection reset")
		_, err := fx.svc.Transition(context.Background(), "don-1", models.DonationStatusApproved, admin, TransitionOptions{})
		assert.True(t, errors.Is(err, appErrors.ErrPersistence))
		assert.Zero(t, fx.notifier.calls)
	})

	t.Run("notification failure is a persistence error", func(t *testing.T) {
		fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusPending))
		fx.notifier.err = errors.New("insert failed")
		_, err := fx.svc.Transition(context.Background(), "don-1", models.DonationStatusApproved, admin, TransitionOptions{})
		assert.True(t, errors.Is(err, appErrors.ErrPersistence))
	})

	t.Run("assignment requires a volunteer", func(t *testing.T) {
		fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusApprovedF))
		_, err := fx.svc.Transition(context.Background(), "don-1", models.DonationStatusVolunteerAssigned, receiver, TransitionOptions{})
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})
}

func TestTransitionRoleDrivenFlow(t *testing.T) {
	seed := donationAt("don-1", models.DonationStatusApproved)
	seed.NGOID = nil
	fx := newDonationFixture(t, nil, seed)
	ctx := context.Background()

	d, err := fx.svc.Transition(ctx, "don-1", models.DonationStatusApprovedF, receiver, TransitionOptions{})
	require.NoError(t, err)
	require.NotNil(t, d.NGOID)
	assert.Equal(t, "ngo-1", *d.NGOID)

	d, err = fx.svc.Transition(ctx, "don-1", models.DonationStatusVolunteerAssigned, volunteer, TransitionOptions{})
	require.NoError(t, err)
	require.NotNil(t, d.VolunteerID)
	assert.Equal(t, "vol-1", *d.VolunteerID)

	steps := []models.DonationStatus{
		models.DonationStatusOnTheWayToReceive,
		models.DonationStatusFoodCollected,
		models.DonationStatusOnTheWayToDeliver,
		models.DonationStatusDelivered,
	}
	for _, step := range steps {
		_, err = fx.svc.Transition(ctx, "don-1", step, volunteer, TransitionOptions{})
		require.NoError(t, err, step)
	}

	other := models.Actor{UserID: "vol-2", Role: models.RoleVolunteer}
	_, err = fx.svc.Transition(ctx, "don-1", models.DonationStatusReceiverConfirmed, other, TransitionOptions{})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	d, err = fx.svc.Transition(ctx, "don-1", models.DonationStatusReceiverConfirmed, receiver, TransitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusReceiverConfirmed, d.Status)
	assert.True(t, d.Status.Terminal())
}

func TestAssignVolunteerConcurrentRace(t *testing.T) {
	fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusApprovedF))

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, 2)
	for i, id := range []string{"vol-1", "vol-2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			<-start
			_, errs[i] = fx.svc.AssignVolunteer(context.Background(), "don-1", id, admin)
		}(i, id)
	}
	close(start)
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, appErrors.ErrAlreadyAssigned):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, fx.store.updates)
	assert.Len(t, fx.notifier.sent, 3)
}

// overlappingReadStore holds the first two reads until both have happened, so
// two callers act on the same snapshot before either writes.
type overlappingReadStore struct {
	*donationStoreStub
	gate  sync.WaitGroup
	mu    sync.Mutex
	reads int
}

func newOverlappingReadStore(seed ...models.Donation) *overlappingReadStore {
	s := &overlappingReadStore{donationStoreStub: newDonationStoreStub(seed...)}
	s.gate.Add(2)
	return s
}

func (s *overlappingReadStore) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	s.mu.Lock()
	n := s.reads
	s.reads++
	s.mu.Unlock()
	if n < 2 {
		s.gate.Done()
		s.gate.Wait()
	}
	return s.donationStoreStub.GetByID(ctx, id)
}

func TestAssignVolunteerOverlappingSameVolunteerSucceedsOnce(t *testing.T) {
	store := newOverlappingReadStore(donationAt("don-1", models.DonationStatusApprovedF))
	notifier := &notificationWriterStub{}
	svc := NewDonationService(store, candidateListerStub{}, notifier,
		NewGeoMatchingService(newGeocoderStub(), GeoMatchingConfig{BatchSize: 5}, zap.NewNop()),
		NewTransitionTable(models.DonationStatusApprovedF), &enqueuerStub{}, NewMetricsService(), nil, zap.NewNop(),
		DonationServiceConfig{VolunteerRadiusKm: 20, NGORadiusKm: 15})

	var wg sync.WaitGroup
	results := make([]*models.Donation, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.AssignVolunteer(context.Background(), "don-1", "vol-1", admin)
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i].VolunteerID)
		assert.Equal(t, "vol-1", *results[i].VolunteerID)
		assert.Equal(t, models.DonationStatusVolunteerAssigned, results[i].Status)
	}
	assert.Equal(t, 1, store.updates)
	assert.Equal(t, 1, notifier.calls)
	assert.Len(t, notifier.sent, 3)
}

func TestAssignVolunteerOverlappingDifferentVolunteersConflict(t *testing.T) {
	store := newOverlappingReadStore(donationAt("don-1", models.DonationStatusApprovedF))
	svc := NewDonationService(store, candidateListerStub{}, &notificationWriterStub{},
		NewGeoMatchingService(newGeocoderStub(), GeoMatchingConfig{BatchSize: 5}, zap.NewNop()),
		NewTransitionTable(models.DonationStatusApprovedF), &enqueuerStub{}, NewMetricsService(), nil, zap.NewNop(),
		DonationServiceConfig{VolunteerRadiusKm: 20, NGORadiusKm: 15})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"vol-1", "vol-2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.AssignVolunteer(context.Background(), "don-1", id, admin)
		}(i, id)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, appErrors.ErrAlreadyAssigned):
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestAssignVolunteerSameVolunteerIsNoop(t *testing.T) {
	fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusVolunteerAssigned))

	_, err := fx.svc.AssignVolunteer(context.Background(), "don-1", "vol-1", admin)
	require.NoError(t, err)

	_, err = fx.svc.AssignVolunteer(context.Background(), "don-1", "vol-9", admin)
	assert.True(t, errors.Is(err, appErrors.ErrAlreadyAssigned))
	assert.Zero(t, fx.store.updates)
}

func TestAssignVolunteerVolunteerCannotAssignOthers(t *testing.T) {
	fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusApprovedF))
	_, err := fx.svc.AssignVolunteer(context.Background(), "don-1", "vol-2", volunteer)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestMatchVolunteersWithinRadius(t *testing.T) {
	fx := newDonationFixture(t, map[models.CandidateKind][]models.Candidate{
		models.CandidateVolunteer: {candidateNorthOf("far", 25), candidateNorthOf("near", 12)},
	}, donationAt("don-1", models.DonationStatusApprovedF))

	ranked, radius, err := fx.svc.MatchVolunteers(context.Background(), "don-1", 0, admin)
	require.NoError(t, err)
	assert.Equal(t, 20.0, radius)
	require.Len(t, ranked, 1)
	assert.Equal(t, "near", ranked[0].ID)
	assert.InDelta(t, 12, ranked[0].DistanceKm, 0.01)
	assert.Equal(t, models.DonationStatusApprovedF, fx.store.status("don-1"))
	assert.Zero(t, fx.notifier.calls)
}

func TestMatchVolunteersResolvesDonationLocation(t *testing.T) {
	seed := donationAt("don-1", models.DonationStatusApprovedF)
	seed.Latitude, seed.Longitude = sql.NullFloat64{}, sql.NullFloat64{}
	fx := newDonationFixture(t, map[models.CandidateKind][]models.Candidate{
		models.CandidateVolunteer: {candidateNorthOf("near", 3)},
	}, seed)
	fx.geocoder.points["Shivaji Nagar, Pune"] = &geo.Point{Lat: pune.Lat, Lng: pune.Lng}

	ranked, _, err := fx.svc.MatchVolunteers(context.Background(), "don-1", 10, receiver)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, pune, fx.store.coordinates["don-1"])
}

func TestMatchVolunteersRequiresReadyDonation(t *testing.T) {
	fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusApproved))
	_, _, err := fx.svc.MatchVolunteers(context.Background(), "don-1", 0, admin)
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))

	_, _, err = fx.svc.MatchVolunteers(context.Background(), "don-1", 0, volunteer)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestMatchVolunteersUngeocodableLocation(t *testing.T) {
	seed := donationAt("don-1", models.DonationStatusApprovedF)
	seed.Latitude, seed.Longitude = sql.NullFloat64{}, sql.NullFloat64{}
	fx := newDonationFixture(t, nil, seed)

	_, _, err := fx.svc.MatchVolunteers(context.Background(), "don-1", 0, admin)
	assert.True(t, errors.Is(err, appErrors.ErrGeocodeNoResult))
}

func TestOfferToOtherNGOsNoCandidates(t *testing.T) {
	fx := newDonationFixture(t, map[models.CandidateKind][]models.Candidate{
		models.CandidateReceiver: {candidateNorthOf("ngo-1", 2), candidateNorthOf("ngo-far", 40)},
	}, donationAt("don-1", models.DonationStatusRejectedF))

	result, err := fx.svc.OfferToOtherNGOs(context.Background(), "don-1", donor)
	require.NoError(t, err)
	assert.True(t, result.NoCandidates)
	assert.Empty(t, result.Offered)
	assert.Equal(t, models.DonationStatusRejectedF, fx.store.status("don-1"))
	assert.Zero(t, fx.store.updates)
	assert.Zero(t, fx.notifier.calls)
}

func TestOfferToOtherNGOsOffersNearbyReceivers(t *testing.T) {
	fx := newDonationFixture(t, map[models.CandidateKind][]models.Candidate{
		models.CandidateReceiver: {
			candidateNorthOf("ngo-1", 1),
			candidateNorthOf("ngo-2", 9),
			candidateNorthOf("ngo-3", 4),
			candidateNorthOf("ngo-4", 16),
		},
	}, donationAt("don-1", models.DonationStatusRejectedF))

	result, err := fx.svc.OfferToOtherNGOs(context.Background(), "don-1", donor)
	require.NoError(t, err)
	assert.False(t, result.NoCandidates)
	require.Len(t, result.Offered, 2)
	assert.Equal(t, "ngo-3", result.Offered[0].ID)
	assert.Equal(t, "ngo-2", result.Offered[1].ID)

	assert.Equal(t, models.DonationStatusPendingOtherNGO, result.Donation.Status)
	assert.Nil(t, result.Donation.NGOID)

	offers := 0
	for _, n := range fx.notifier.sent {
		if n.Type == models.NotificationDonationOffer {
			offers++
			assert.Equal(t, models.AudienceReceiver, n.For)
			require.NotNil(t, n.RecipientID)
			assert.NotEqual(t, "ngo-1", *n.RecipientID)
		}
	}
	assert.Equal(t, 2, offers)
	assert.Equal(t, 1, fx.notifier.calls)

	// another NGO accepts the re-offer
	accepting := models.Actor{UserID: "ngo-3", Role: models.RoleReceiver}
	d, err := fx.svc.Transition(context.Background(), "don-1", models.DonationStatusApprovedF, accepting, TransitionOptions{})
	require.NoError(t, err)
	require.NotNil(t, d.NGOID)
	assert.Equal(t, "ngo-3", *d.NGOID)
}

func TestTransitionToPendingOtherNGORunsReoffer(t *testing.T) {
	t.Run("no receivers in range", func(t *testing.T) {
		fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusRejectedF))

		_, err := fx.svc.Transition(context.Background(), "don-1", models.DonationStatusPendingOtherNGO, donor, TransitionOptions{})
		assert.True(t, errors.Is(err, appErrors.ErrNoCandidates))
		assert.Equal(t, models.DonationStatusRejectedF, fx.store.status("don-1"))
		assert.Zero(t, fx.store.updates)
		assert.Zero(t, fx.notifier.calls)
	})

	t.Run("offers nearby receivers", func(t *testing.T) {
		fx := newDonationFixture(t, map[models.CandidateKind][]models.Candidate{
			models.CandidateReceiver: {candidateNorthOf("ngo-1", 1), candidateNorthOf("ngo-2", 3)},
		}, donationAt("don-1", models.DonationStatusRejectedF))

		d, err := fx.svc.Transition(context.Background(), "don-1", models.DonationStatusPendingOtherNGO, donor, TransitionOptions{})
		require.NoError(t, err)
		assert.Equal(t, models.DonationStatusPendingOtherNGO, d.Status)
		assert.Nil(t, d.NGOID)

		offers := 0
		for _, n := range fx.notifier.sent {
			if n.Type == models.NotificationDonationOffer {
				offers++
				require.NotNil(t, n.RecipientID)
				assert.Equal(t, "ngo-2", *n.RecipientID)
			}
		}
		assert.Equal(t, 1, offers)
	})
}

func TestOfferToOtherNGOsRequiresRejectedF(t *testing.T) {
	fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusApproved))
	_, err := fx.svc.OfferToOtherNGOs(context.Background(), "don-1", donor)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))

	fx = newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusRejectedF))
	_, err = fx.svc.OfferToOtherNGOs(context.Background(), "don-1", volunteer)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestCreateDonation(t *testing.T) {
	fx := newDonationFixture(t, nil)
	req := dto.CreateDonationRequest{
		Description:  "Dal and rice",
		FoodTypes:    []string{"cooked"},
		Quantity:     "15 kg",
		DonorName:    "Annapurna Mess",
		DonorContact: "+91 98200 00000",
		Location:     "Unnamed Road, Kothrud, Pune",
	}

	d, err := fx.svc.Create(context.Background(), req, donor)
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPending, d.Status)
	assert.Equal(t, "donor-1", d.DonorID)
	assert.NotEmpty(t, d.ID)
	require.Len(t, fx.store.created, 1)
	require.Len(t, fx.backfill.jobs, 1)
	assert.Equal(t, JobTypeGeocodeDonation, fx.backfill.jobs[0].Type)
	assert.Equal(t, d.ID, fx.backfill.jobs[0].Payload)
	require.Len(t, fx.notifier.sent, 1)
	assert.Equal(t, models.NotificationNewDonation, fx.notifier.sent[0].Type)

	lat, lng := 18.5, 73.8
	req.Latitude, req.Longitude = &lat, &lng
	d, err = fx.svc.Create(context.Background(), req, donor)
	require.NoError(t, err)
	require.NotNil(t, d.Coordinates)
	assert.Len(t, fx.backfill.jobs, 1, "no backfill when coordinates are supplied")
}

func TestCreateDonationValidation(t *testing.T) {
	fx := newDonationFixture(t, nil)

	_, err := fx.svc.Create(context.Background(), dto.CreateDonationRequest{}, donor)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = fx.svc.Create(context.Background(), dto.CreateDonationRequest{Description: "x"}, volunteer)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	lat := 18.5
	_, err = fx.svc.Create(context.Background(), dto.CreateDonationRequest{
		Description: "Bread", FoodTypes: []string{"bakery"}, Quantity: "3 trays",
		DonorName: "Bakery", DonorContact: "0200", Location: "Camp", Latitude: &lat,
	}, donor)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, fx.store.created)
}

func TestListScopesByRole(t *testing.T) {
	fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusPending))
	ctx := context.Background()

	_, page, err := fx.svc.List(ctx, dto.DonationQuery{Limit: 500}, donor)
	require.NoError(t, err)
	assert.Equal(t, "donor-1", fx.store.listFilter.DonorID)
	assert.Equal(t, maxDonationPageSize, page.Limit)

	_, _, err = fx.svc.List(ctx, dto.DonationQuery{}, receiver)
	require.NoError(t, err)
	assert.Equal(t, "ngo-1", fx.store.listFilter.NGOID)
	assert.Contains(t, fx.store.listFilter.OrStatus, models.DonationStatusPendingOtherNGO)

	_, _, err = fx.svc.List(ctx, dto.DonationQuery{Status: []string{"approvedF"}}, volunteer)
	require.NoError(t, err)
	assert.Equal(t, "vol-1", fx.store.listFilter.VolunteerID)
	assert.Equal(t, []models.DonationStatus{models.DonationStatusApprovedF}, fx.store.listFilter.Status)

	_, _, err = fx.svc.List(ctx, dto.DonationQuery{Status: []string{"lost"}}, admin)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestGetHonoursVisibility(t *testing.T) {
	fx := newDonationFixture(t, nil, donationAt("don-1", models.DonationStatusApproved))
	ctx := context.Background()

	d, err := fx.svc.Get(ctx, "don-1", receiver)
	require.NoError(t, err)
	require.NotNil(t, d.Coordinates)

	_, err = fx.svc.Get(ctx, "don-1", models.Actor{UserID: "ngo-9", Role: models.RoleReceiver})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = fx.svc.Get(ctx, "don-1", volunteer)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestHandleGeocodeJob(t *testing.T) {
	seed := donationAt("don-1", models.DonationStatusPending)
	seed.Latitude, seed.Longitude = sql.NullFloat64{}, sql.NullFloat64{}
	fx := newDonationFixture(t, nil, seed)
	fx.geocoder.points["Shivaji Nagar, Pune"] = &geo.Point{Lat: 18.53, Lng: 73.85}

	err := fx.svc.HandleGeocodeJob(context.Background(), jobs.Job{ID: "j1", Payload: "don-1"})
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Lat: 18.53, Lng: 73.85}, fx.store.coordinates["don-1"])

	require.NoError(t, fx.svc.HandleGeocodeJob(context.Background(), jobs.Job{ID: "j2", Payload: "missing"}))
	require.NoError(t, fx.svc.HandleGeocodeJob(context.Background(), jobs.Job{ID: "j3", Payload: 42}))
}

func TestHandleGeocodeJobRetriesTransientFailures(t *testing.T) {
	seed := donationAt("don-1", models.DonationStatusPending)
	seed.Latitude, seed.Longitude = sql.NullFloat64{}, sql.NullFloat64{}
	fx := newDonationFixture(t, nil, seed)
	fx.geocoder.failures["Shivaji Nagar, Pune"] = errors.New("timeout")

	err := fx.svc.HandleGeocodeJob(context.Background(), jobs.Job{ID: "j1", Payload: "don-1"})
	assert.True(t, errors.Is(err, appErrors.ErrGeocodeFailure))
	assert.Empty(t, fx.store.coordinates)
}
