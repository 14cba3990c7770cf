package places

import (
	"context"
	"strings"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

// MockClient serves a fixed list of donation centers and geocodes every
// address to the same point.
type MockClient struct{}

var _ Client = MockClient{}

// MockLocation is where MockClient places every address.
var MockLocation = models.Location{Lat: 37.7749, Lng: -122.4194}

func mockCenters() []models.DonationCenter {
	return []models.DonationCenter{
		{
			ID:             "fb1",
			Name:           "Community Food Bank",
			Address:        "123 Main Street, Downtown",
			Distance:       "1.2 miles",
			Phone:          "(555) 123-4567",
			Website:        "https://communityfoodbank.org",
			Hours:          "Mon-Fri: 9am-5pm, Sat: 10am-2pm",
			AcceptingItems: []string{"Non-perishable food", "Fresh produce", "Dairy"},
		},
		{
			ID:             "fb2",
			Name:           "Hope Shelter",
			Address:        "456 Park Avenue, Uptown",
			Distance:       "2.8 miles",
			Phone:          "(555) 987-6543",
			Website:        "https://hopeshelter.org",
			Hours:          "Mon-Sun: 8am-8pm",
			AcceptingItems: []string{"All food items", "Personal care items"},
		},
		{
			ID:             "fb3",
			Name:           "Neighborhood Pantry",
			Address:        "789 Oak Street, Westside",
			Distance:       "3.5 miles",
			Phone:          "(555) 246-8101",
			Website:        "https://neighborhoodpantry.org",
			Hours:          "Tue, Thu: 2pm-7pm, Sat: 9am-12pm",
			AcceptingItems: []string{"Non-perishable food", "Canned goods"},
		},
	}
}

func (MockClient) NearbyDonationCenters(ctx context.Context, _ models.Location, _ int) ([]models.DonationCenter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mockCenters(), nil
}

func (MockClient) Geocode(ctx context.Context, address string) (models.Location, error) {
	if err := ctx.Err(); err != nil {
		return models.Location{}, err
	}
	if strings.TrimSpace(address) == "" {
		return models.Location{}, ErrNoResults
	}
	return MockLocation, nil
}
