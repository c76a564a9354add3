package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/golang/groupcache/singleflight"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/food-rescue-api/internal/models"
	appErrors "github.com/noah-isme/food-rescue-api/pkg/errors"
	"github.com/noah-isme/food-rescue-api/pkg/geo"
)

// Geocoder resolves address text. (nil, nil) means no result; an error means
// the lookup failed transiently and may be retried.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geo.Point, error)
}

// PlusCodeDecoder resolves Plus Codes, optionally followed by a locality.
type PlusCodeDecoder interface {
	DecodePlusCode(ctx context.Context, code string) (*geo.Point, error)
}

// GeoMatchingConfig tunes outbound politeness.
type GeoMatchingConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

// GeoMatchingService resolves locations and ranks candidates by distance.
type GeoMatchingService struct {
	geocoder  Geocoder
	plusCodes PlusCodeDecoder
	cache     *GeocodeCache
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       GeoMatchingConfig
	flight    singleflight.Group
	sleep     func(ctx context.Context, d time.Duration) error
}

// GeoMatchingOption configures the service.
type GeoMatchingOption func(*GeoMatchingService)

// WithPlusCodeDecoder enables direct Plus Code decoding.
func WithPlusCodeDecoder(decoder PlusCodeDecoder) GeoMatchingOption {
	return func(s *GeoMatchingService) {
		s.plusCodes = decoder
	}
}

// WithGeocodeCache replaces the default unbounded in-process cache.
func WithGeocodeCache(cache *GeocodeCache) GeoMatchingOption {
	return func(s *GeoMatchingService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithGeoMetrics attaches Prometheus instrumentation.
func WithGeoMetrics(metrics *MetricsService) GeoMatchingOption {
	return func(s *GeoMatchingService) {
		s.metrics = metrics
	}
}

// NewGeoMatchingService constructs the service with defaults.
func NewGeoMatchingService(geocoder Geocoder, cfg GeoMatchingConfig, logger *zap.Logger, opts ...GeoMatchingOption) *GeoMatchingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	svc := &GeoMatchingService{
		geocoder: geocoder,
		cache:    NewGeocodeCache(0, nil, 0),
		logger:   logger,
		cfg:      cfg,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// ResolveCoordinates turns a WKT point, JSON coordinates or free-text address
// into a point. It returns (nil, nil) when nothing was found and an
// ErrGeocodeFailure-coded error when the geocoder failed transiently.
func (s *GeoMatchingService) ResolveCoordinates(ctx context.Context, raw string) (*geo.Point, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if p, ok := geo.ParsePoint(trimmed); ok {
		return &p, nil
	}
	// the cache is keyed by the exact input string
	if p, ok := s.cache.Get(ctx, raw); ok {
		s.metrics.RecordCacheOperation(true)
		return p, nil
	}
	s.metrics.RecordCacheOperation(false)

	v, err := s.flight.Do(raw, func() (interface{}, error) {
		p, err := s.resolveRemote(ctx, raw)
		if err != nil {
			return nil, err
		}
		s.cache.Put(ctx, raw, p)
		return p, nil
	})
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrGeocodeFailure, err, "")
	}
	return v.(*geo.Point), nil
}

func (s *GeoMatchingService) resolveRemote(ctx context.Context, address string) (*geo.Point, error) {
	cleaned := geo.CleanAddress(address)

	if code, locality, ok := geo.SplitPlusCode(cleaned); ok {
		if s.plusCodes != nil {
			query := strings.TrimSpace(code + " " + locality)
			p, err := s.callGeocoder(ctx, func() (*geo.Point, error) { return s.plusCodes.DecodePlusCode(ctx, query) })
			if err != nil {
				s.logger.Debug("plus code decode failed, falling back to locality", zap.String("code", code), zap.Error(err))
			} else if p != nil {
				return p, nil
			}
		}
		cleaned = locality
	}

	if cleaned == "" || s.geocoder == nil {
		return nil, nil
	}
	return s.callGeocoder(ctx, func() (*geo.Point, error) { return s.geocoder.Geocode(ctx, cleaned) })
}

func (s *GeoMatchingService) callGeocoder(ctx context.Context, call func() (*geo.Point, error)) (*geo.Point, error) {
	start := time.Now()
	p, err := call()
	switch {
	case err != nil:
		s.metrics.ObserveGeocode(GeocodeOutcomeError, time.Since(start))
		return nil, err
	case p == nil || !p.Valid():
		s.metrics.ObserveGeocode(GeocodeOutcomeNoResult, time.Since(start))
		return nil, nil
	default:
		s.metrics.ObserveGeocode(GeocodeOutcomeOK, time.Since(start))
		return p, nil
	}
}

// DistanceKm is the haversine distance between two points.
func (s *GeoMatchingService) DistanceKm(a, b geo.Point) float64 {
	return geo.DistanceKm(a, b)
}

// FindWithinRadius resolves every candidate, drops those that cannot be
// located or lie beyond radiusKm, and returns the rest nearest first.
// Candidates that need a network lookup are resolved BatchSize at a time with
// BatchDelay between batches.
func (s *GeoMatchingService) FindWithinRadius(ctx context.Context, reference geo.Point, candidates []models.Candidate, radiusKm float64) ([]models.RankedCandidate, error) {
	if !reference.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reference point is invalid")
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "radius must be a finite, non-negative number")
	}

	points := make([]*geo.Point, len(candidates))
	pending := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if p, ok := c.KnownPoint(); ok {
			points[i] = &p
			continue
		}
		query := c.LocationQuery()
		if p, ok := geo.ParsePoint(strings.TrimSpace(query)); ok {
			points[i] = &p
			continue
		}
		if p, ok := s.cache.Peek(query); ok {
			s.metrics.RecordCacheOperation(true)
			points[i] = p
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += s.cfg.BatchSize {
		if start > 0 {
			if err := s.sleep(ctx, s.cfg.BatchDelay); err != nil {
				return nil, err
			}
		}
		end := start + s.cfg.BatchSize
		if end > len(pending) {
			end = len(pending)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.BatchSize)
		for _, idx := range pending[start:end] {
			idx := idx
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				c := candidates[idx]
				p, err := s.ResolveCoordinates(gctx, c.LocationQuery())
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					s.logger.Warn("excluding candidate after geocode failure",
						zap.String("candidate_id", c.ID), zap.String("kind", string(c.Kind)), zap.Error(err))
					return nil
				}
				points[idx] = p
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	ranked := make([]models.RankedCandidate, 0, len(candidates))
	for i, c := range candidates {
		if points[i] == nil {
			continue
		}
		d := geo.DistanceKm(reference, *points[i])
		if d > radiusKm {
			continue
		}
		ranked = append(ranked, models.RankedCandidate{Candidate: c, Coordinates: *points[i], DistanceKm: d})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
