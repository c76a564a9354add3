// Package geocoder talks to an external address geocoding API (Nominatim or
// the Google Geocoding API).
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/noah-isme/food-rescue-api/pkg/config"
	"github.com/noah-isme/food-rescue-api/pkg/geo"
)

// ErrUnavailable marks transient failures (timeouts, rate limits, 5xx). Callers
// may retry; the result must not be cached.
var ErrUnavailable = errors.New("geocoder unavailable")

// Client resolves free-text addresses to coordinates.
// A nil point with a nil error means the provider found nothing.
type Client struct {
	provider   string
	baseURL    string
	apiKey     string
	userAgent  string
	regionHint string
	http       *http.Client
}

// New builds a client from configuration.
func New(cfg config.GeocoderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	provider := cfg.Provider
	if provider == "" {
		provider = config.GeocoderNominatim
	}
	return &Client{
		provider:   provider,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		regionHint: cfg.RegionHint,
		http:       &http.Client{Timeout: timeout},
	}
}

// SupportsPlusCodes reports whether the provider understands Plus Codes natively.
func (c *Client) SupportsPlusCodes() bool {
	return c.provider == config.GeocoderGoogle
}

// Geocode resolves address text.
func (c *Client) Geocode(ctx context.Context, address string) (*geo.Point, error) {
	if c.provider == config.GeocoderGoogle {
		return c.google(ctx, address)
	}
	return c.nominatim(ctx, address)
}

// DecodePlusCode resolves a Plus Code, optionally followed by a locality for
// short codes. Only the Google provider can decode; others report no result.
func (c *Client) DecodePlusCode(ctx context.Context, code string) (*geo.Point, error) {
	if !c.SupportsPlusCodes() {
		return nil, nil
	}
	return c.google(ctx, code)
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) nominatim(ctx context.Context, address string) (*geo.Point, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("q", address)
	if c.regionHint != "" {
		q.Set("countrycodes", c.regionHint)
	}

	var places []nominatimPlace
	if err := c.getJSON(ctx, c.baseURL+"/search?"+q.Encode(), &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}
	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return nil, fmt.Errorf("nominatim returned malformed coordinates %q,%q", places[0].Lat, places[0].Lon)
	}
	return &geo.Point{Lat: lat, Lng: lng}, nil
}

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

func (c *Client) google(ctx context.Context, address string) (*geo.Point, error) {
	q := url.Values{}
	q.Set("address", address)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	if c.regionHint != "" {
		q.Set("region", c.regionHint)
	}

	var resp googleResponse
	if err := c.getJSON(ctx, c.baseURL+"/maps/api/geocode/json?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	switch resp.Status {
	case "OK":
		if len(resp.Results) == 0 {
			return nil, nil
		}
		loc := resp.Results[0].Geometry.Location
		return &geo.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
	case "ZERO_RESULTS":
		return nil, nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, fmt.Errorf("%w: google status %s", ErrUnavailable, resp.Status)
	default:
		return nil, fmt.Errorf("google geocoding status %s: %s", resp.Status, resp.ErrorMessage)
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: http %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("geocode request failed: http %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode geocode response: %w", err)
	}
	return nil
}
