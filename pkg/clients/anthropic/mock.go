package anthropic

import (
	"context"
	"strings"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

// MockClient returns a fixed sample receipt. It stands in for the model when
// no API key is configured.
type MockClient struct{}

var _ Client = MockClient{}

type sampleItem struct {
	name     string
	category string
	days     int
}

var sampleReceipt = []sampleItem{
	{name: "Milk", category: "Dairy", days: 2},
	{name: "Bread", category: "Bakery", days: 1},
	{name: "Spinach", category: "Produce", days: 3},
	{name: "Eggs", category: "Dairy", days: 14},
	{name: "Chicken", category: "Meat", days: 2},
	{name: "Apples", category: "Produce", days: 7},
}

// ExtractReceipt ignores the image and returns the six sample items without a
// store or date, so the caller's defaults apply.
func (MockClient) ExtractReceipt(ctx context.Context, _ []byte, _ string) (models.ExtractedReceipt, error) {
	if err := ctx.Err(); err != nil {
		return models.ExtractedReceipt{}, err
	}
	out := models.ExtractedReceipt{Items: make([]models.Item, 0, len(sampleReceipt))}
	for _, s := range sampleReceipt {
		item := models.NewItem(s.name)
		item.Category = s.category
		days := s.days
		item.ExpiryDays = &days
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// EstimateShelfLife looks the item name up in the sample list, falling back
// to seven days.
func (MockClient) EstimateShelfLife(ctx context.Context, itemName string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	for _, s := range sampleReceipt {
		if strings.EqualFold(s.name, strings.TrimSpace(itemName)) {
			return s.days, nil
		}
	}
	return 7, nil
}
