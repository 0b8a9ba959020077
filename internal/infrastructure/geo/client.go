package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"marketplace-backend/internal/config"
)

var (
	// ErrAddressNotResolvable is returned when the provider cannot geocode the input
	ErrAddressNotResolvable = errors.New("address could not be resolved")

	// ErrRouteUnavailable is returned when no route exists between two points
	ErrRouteUnavailable = errors.New("no route between locations")
)

// Location is a geocoded address.
type Location struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Route is a driving distance estimate between two locations.
type Route struct {
	Meters          int `json:"meters"`
	DurationSeconds int `json:"duration_seconds"`
}

// Geocoder is the geocoding collaborator. It is not correctness-critical:
// callers treat failures as DependencyFailure and surface them.
type Geocoder interface {
	// ParseAddress geocodes a free-form address string.
	ParseAddress(ctx context.Context, raw string) (*Location, error)

	// Distance estimates the driving route between two locations.
	Distance(ctx context.Context, from, to Location) (*Route, error)
}

// httpGeocoder calls the external geocoding HTTP API.
type httpGeocoder struct {
	cfg    config.GeoConfig
	client *http.Client
}

// NewHTTPGeocoder creates the production geocoder client.
func NewHTTPGeocoder(cfg config.GeoConfig) Geocoder {
	return &httpGeocoder{
		cfg: cfg,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string  `json:"formatted_address"`
		Latitude         float64 `json:"lat"`
		Longitude        float64 `json:"lng"`
	} `json:"results"`
}

func (g *httpGeocoder) ParseAddress(ctx context.Context, raw string) (*Location, error) {
	endpoint := fmt.Sprintf("%s/geocode?key=%s&address=%s",
		g.cfg.APIURL, url.QueryEscape(g.cfg.APIKey), url.QueryEscape(raw))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request failed: status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if body.Status != "OK" || len(body.Results) == 0 {
		return nil, ErrAddressNotResolvable
	}

	first := body.Results[0]
	return &Location{
		FormattedAddress: first.FormattedAddress,
		Latitude:         first.Latitude,
		Longitude:        first.Longitude,
	}, nil
}

type distanceResponse struct {
	Status string `json:"status"`
	Route  struct {
		Meters          int `json:"distance"`
		DurationSeconds int `json:"duration"`
	} `json:"route"`
}

func (g *httpGeocoder) Distance(ctx context.Context, from, to Location) (*Route, error) {
	endpoint := fmt.Sprintf("%s/distance?key=%s&origin=%f,%f&destination=%f,%f",
		g.cfg.APIURL, url.QueryEscape(g.cfg.APIKey),
		from.Latitude, from.Longitude, to.Latitude, to.Longitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build distance request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("distance request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("distance request failed: status %d", resp.StatusCode)
	}

	var body distanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode distance response: %w", err)
	}

	if body.Status != "OK" {
		return nil, ErrRouteUnavailable
	}

	return &Route{
		Meters:          body.Route.Meters,
		DurationSeconds: body.Route.DurationSeconds,
	}, nil
}
