// Package places finds donation centers with the Google Places and Geocoding
// web services.
package places

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/expiry-tracker/internal/config"
	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

const (
	placeTypes    = "food_bank|charity|community_center"
	placeKeywords = "food bank OR shelter OR donation"
	earthRadiusMi = 3958.8
)

// ErrNoResults is returned by Geocode when the address matches nothing.
var ErrNoResults = errors.New("no results")

// Client exposes the lookups the donation finder needs.
type Client interface {
	NearbyDonationCenters(ctx context.Context, loc models.Location, radiusMeters int) ([]models.DonationCenter, error)
	Geocode(ctx context.Context, address string) (models.Location, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	apiKey     string
}

var _ Client = (*APIClient)(nil)

// NewClient builds a Places client from configuration.
func NewClient(cfg config.PlacesConfig) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{httpClient: restyClient, apiKey: cfg.APIKey}
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
		OpeningHours *struct {
			OpenNow bool `json:"open_now"`
		} `json:"opening_hours"`
		Types []string `json:"types"`
	} `json:"results"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NearbyDonationCenters searches food banks, charities and community centers
// around loc. Distances are straight-line miles from loc.
func (c *APIClient) NearbyDonationCenters(ctx context.Context, loc models.Location, radiusMeters int) ([]models.DonationCenter, error) {
	result := new(nearbyResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"location": fmt.Sprintf("%s,%s", formatCoord(loc.Lat), formatCoord(loc.Lng)),
			"radius":   strconv.Itoa(radiusMeters),
			"type":     placeTypes,
			"keyword":  placeKeywords,
			"key":      c.apiKey,
		}).
		SetResult(result).
		Get("/place/nearbysearch/json")
	if err != nil {
		return nil, fmt.Errorf("places nearby search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("places api error: status=%d", resp.StatusCode())
	}
	if err := checkStatus(result.Status, result.ErrorMessage); err != nil {
		if errors.Is(err, ErrNoResults) {
			return []models.DonationCenter{}, nil
		}
		return nil, err
	}

	centers := make([]models.DonationCenter, 0, len(result.Results))
	for _, place := range result.Results {
		to := models.Location{Lat: place.Geometry.Location.Lat, Lng: place.Geometry.Location.Lng}
		center := models.DonationCenter{
			ID:       place.PlaceID,
			Name:     place.Name,
			Address:  place.Vicinity,
			Distance: FormatMiles(DistanceMiles(loc, to)),
		}
		if place.OpeningHours != nil {
			center.Hours = "Closed now"
			if place.OpeningHours.OpenNow {
				center.Hours = "Open now"
			}
		}
		centers = append(centers, center)
	}
	return centers, nil
}

// Geocode resolves a free-form address or zip code to coordinates.
func (c *APIClient) Geocode(ctx context.Context, address string) (models.Location, error) {
	result := new(geocodeResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address": address,
			"key":     c.apiKey,
		}).
		SetResult(result).
		Get("/geocode/json")
	if err != nil {
		return models.Location{}, fmt.Errorf("geocode: %w", err)
	}
	if resp.IsError() {
		return models.Location{}, fmt.Errorf("geocoding api error: status=%d", resp.StatusCode())
	}
	if err := checkStatus(result.Status, result.ErrorMessage); err != nil {
		return models.Location{}, err
	}
	if len(result.Results) == 0 {
		return models.Location{}, ErrNoResults
	}
	loc := result.Results[0].Geometry.Location
	return models.Location{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func checkStatus(status, message string) error {
	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS":
		return ErrNoResults
	default:
		return fmt.Errorf("google maps api error: status=%s, message=%s", status, message)
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DistanceMiles is the haversine distance between two points.
func DistanceMiles(from, to models.Location) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(to.Lat - from.Lat)
	dLng := rad(to.Lng - from.Lng)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(from.Lat))*math.Cos(rad(to.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMi * math.Asin(math.Sqrt(a))
}

// FormatMiles renders a distance the way the donation list shows it.
func FormatMiles(miles float64) string {
	return fmt.Sprintf("%.1f miles", miles)
}
