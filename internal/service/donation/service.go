package donation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/pkg/clients/places"
)

// MsgInvalidZip is shown when the zip code field is left blank.
const MsgInvalidZip = "Please enter a valid zip code"

var (
	ErrInvalidZip      = errors.New("invalid zip code")
	ErrZipNotFound     = errors.New("zip code not found")
	ErrInvalidLocation = errors.New("latitude must be within ±90 and longitude within ±180")
)

// Service looks up donation centers near a point or a zip code.
type Service struct {
	places        places.Client
	defaultRadius int
	logger        *zap.Logger
}

// NewService wires a new donation finder.
func NewService(client places.Client, defaultRadius int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{places: client, defaultRadius: defaultRadius, logger: logger}
}

// FindNearby lists centers within radiusMeters of loc; a non-positive radius
// uses the configured default.
func (s *Service) FindNearby(ctx context.Context, loc models.Location, radiusMeters int) (models.DonationSearchResult, error) {
	if !validCoordinate(loc.Lat, 90) || !validCoordinate(loc.Lng, 180) {
		return models.DonationSearchResult{}, ErrInvalidLocation
	}
	if radiusMeters <= 0 {
		radiusMeters = s.defaultRadius
	}

	centers, err := s.places.NearbyDonationCenters(ctx, loc, radiusMeters)
	if err != nil {
		s.logger.Warn("donation center lookup failed", zap.Error(err))
		return models.DonationSearchResult{}, fmt.Errorf("find donation centers: %w", err)
	}
	if centers == nil {
		centers = []models.DonationCenter{}
	}
	return models.DonationSearchResult{Location: loc, Centers: centers, HasResults: len(centers) > 0}, nil
}

// FindByZip geocodes zip and searches around it with the default radius.
func (s *Service) FindByZip(ctx context.Context, zip string) (models.DonationSearchResult, error) {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return models.DonationSearchResult{}, ErrInvalidZip
	}

	loc, err := s.places.Geocode(ctx, zip)
	if err != nil {
		if errors.Is(err, places.ErrNoResults) {
			return models.DonationSearchResult{}, ErrZipNotFound
		}
		return models.DonationSearchResult{}, fmt.Errorf("geocode zip code: %w", err)
	}
	return s.FindNearby(ctx, loc, 0)
}

// validCoordinate reports whether v is a number within ±limit.
func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}
