// Package expiry keeps an item's expiry day count and expiry date consistent
// with the purchase date of its receipt.
package expiry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

// DefaultDays is used for perishable items whose category is unknown, and when
// an item is switched back to perishable.
const DefaultDays = 7

// MaxExpiryDays bounds any day count accepted from users or the model.
const MaxExpiryDays = 36500

const secondsPerDay = 24 * 60 * 60

var categoryDays = map[string]int{
	"dairy":    7,
	"meat":     3,
	"produce":  5,
	"bakery":   4,
	"eggs":     21,
	"seafood":  2,
	"frozen":   90,
	"packaged": 180,
	"pantry":   365,
}

var nonPerishableKeywords = []string{"toiletries", "household", "cleaning", "paper", "non-food"}

// DeriveExpiryDate adds expiryDays whole days to purchaseDate.
func DeriveExpiryDate(purchaseDate models.Date, expiryDays int) models.Date {
	return purchaseDate.AddDays(expiryDays)
}

// DeriveExpiryDays returns the whole-day distance between the two dates,
// rounded up. An expiry date before the purchase date is tolerated and yields
// the same positive count.
func DeriveExpiryDays(purchaseDate, expiryDate models.Date) int {
	diff := expiryDate.Time.Unix() - purchaseDate.Time.Unix()
	if diff < 0 {
		diff = -diff
	}
	return int((diff + secondsPerDay - 1) / secondsPerDay)
}

// DefaultDaysFor returns the shelf life for a category, DefaultDays when the
// category is blank or not in the table.
func DefaultDaysFor(category string) int {
	if days, ok := categoryDays[strings.ToLower(strings.TrimSpace(category))]; ok {
		return days
	}
	return DefaultDays
}

// IsNonPerishableCategory reports whether the category names goods that do
// not spoil.
func IsNonPerishableCategory(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return false
	}
	for _, kw := range nonPerishableKeywords {
		if strings.Contains(c, kw) {
			return true
		}
	}
	return false
}

// RecalculateAll rebases every item that has an expiry day count onto
// newPurchaseDate. Items without a day count are returned unchanged. The input
// slice is not modified.
func RecalculateAll(items []models.Item, newPurchaseDate models.Date) []models.Item {
	out := make([]models.Item, len(items))
	for i, item := range items {
		item = item.Clone()
		if item.ExpiryDays != nil {
			item.ExpiryDate = DeriveExpiryDate(newPurchaseDate, *item.ExpiryDays).Ptr()
		}
		out[i] = item
	}
	return out
}

// ClassifyDefault fills in expiry fields from the item's category. Items in a
// non-perishable category lose both fields. For the rest an explicit day count
// wins, then an explicit date, then the category default.
func ClassifyDefault(item models.Item, purchaseDate models.Date) models.Item {
	item = item.Clone()
	if IsNonPerishableCategory(item.Category) || !item.IsPerishable {
		return clearExpiry(item)
	}

	switch {
	case item.ExpiryDays != nil:
		item.ExpiryDate = DeriveExpiryDate(purchaseDate, *item.ExpiryDays).Ptr()
	case item.ExpiryDate != nil:
		days := DeriveExpiryDays(purchaseDate, *item.ExpiryDate)
		item.ExpiryDays = &days
	default:
		days := DefaultDaysFor(item.Category)
		item.ExpiryDays = &days
		item.ExpiryDate = DeriveExpiryDate(purchaseDate, days).Ptr()
	}
	return item
}

// SetPerishable toggles the perishable flag. Turning it off clears both expiry
// fields; turning it on restores DefaultDays from purchaseDate.
func SetPerishable(item models.Item, perishable bool, purchaseDate models.Date) models.Item {
	item = item.Clone()
	if !perishable {
		return clearExpiry(item)
	}
	if item.IsPerishable && item.ExpiryDays != nil {
		return item
	}
	item.IsPerishable = true
	days := DefaultDays
	item.ExpiryDays = &days
	item.ExpiryDate = DeriveExpiryDate(purchaseDate, days).Ptr()
	return item
}

// ApplyExpiryDays sets the day count and recomputes the date.
func ApplyExpiryDays(item models.Item, days int, purchaseDate models.Date) models.Item {
	item = item.Clone()
	item.ExpiryDays = &days
	item.ExpiryDate = DeriveExpiryDate(purchaseDate, days).Ptr()
	return item
}

// ApplyExpiryDate sets the date and recomputes the day count.
func ApplyExpiryDate(item models.Item, date models.Date, purchaseDate models.Date) models.Item {
	item = item.Clone()
	days := DeriveExpiryDays(purchaseDate, date)
	item.ExpiryDays = &days
	item.ExpiryDate = date.Ptr()
	return item
}

// ParseExpiryDays reads a day count typed by the user. Anything that is not a
// whole number between 0 and MaxExpiryDays (an integral float such as "3.0"
// is accepted) reports ok=false.
func ParseExpiryDays(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return RoundDays(f)
}

// RoundDays converts a fractional day count to the nearest whole day.
// Negative, non-finite and out-of-range values report ok=false.
func RoundDays(f float64) (int, bool) {
	if math.IsNaN(f) || f < 0 || f > MaxExpiryDays {
		return 0, false
	}
	return int(math.Round(f)), true
}

// ApplyRawExpiryDays is ApplyExpiryDays for unvalidated input. Malformed input
// leaves the item in the "unknown expiry" state instead of failing.
func ApplyRawExpiryDays(item models.Item, raw string, purchaseDate models.Date) models.Item {
	days, ok := ParseExpiryDays(raw)
	if !ok {
		item = item.Clone()
		item.ExpiryDays = nil
		item.ExpiryDate = nil
		return item
	}
	return ApplyExpiryDays(item, days, purchaseDate)
}

// DaysLeft counts whole days from today until the expiry date; negative once
// the date has passed.
func DaysLeft(expiryDate, today models.Date) int {
	diff := expiryDate.Time.Unix() - today.Time.Unix()
	return int(math.Round(float64(diff) / secondsPerDay))
}

// StatusFor buckets a days-left count.
func StatusFor(daysLeft int) models.ExpiryStatus {
	switch {
	case daysLeft < 0:
		return models.ExpiryExpired
	case daysLeft <= 1:
		return models.ExpiryCritical
	case daysLeft <= 3:
		return models.ExpiryWarning
	default:
		return models.ExpiryFresh
	}
}

// Label renders the expiry state of an item for display.
func Label(item models.Item) string {
	if !item.IsPerishable {
		return "non-perishable"
	}
	if item.ExpiryDate == nil || item.ExpiryDays == nil {
		return "unknown expiry"
	}
	unit := "days"
	if *item.ExpiryDays == 1 {
		unit = "day"
	}
	return fmt.Sprintf("expires %s (%d %s)", item.ExpiryDate, *item.ExpiryDays, unit)
}

func clearExpiry(item models.Item) models.Item {
	item.IsPerishable = false
	item.ExpiryDays = nil
	item.ExpiryDate = nil
	return item
}
