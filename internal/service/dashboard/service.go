package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/expiry"
	"github.com/mamadbah2/expiry-tracker/internal/repository"
)

const (
	// SoonDays is the last days-left value listed as expiring soon. Items in
	// that window can also be offered for donation.
	SoonDays    = 3
	recentLimit = 6
)

// Service builds the dashboard from a user's pantry.
type Service struct {
	repo repository.PantryRepository
	loc  *time.Location
	now  func() time.Time
}

// NewService wires a new dashboard service. loc decides what "today" is.
func NewService(repo repository.PantryRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

// Build computes stats, the expiring-soon list and the most recent items.
func (s *Service) Build(ctx context.Context, userID string) (models.Dashboard, error) {
	items, err := s.repo.ListItems(ctx, userID, "")
	if err != nil {
		return models.Dashboard{}, fmt.Errorf("load pantry: %w", err)
	}

	today := models.DateOf(s.now().In(s.loc))
	out := models.Dashboard{
		ExpiringSoon: []models.DashboardItem{},
		Recent:       []models.DashboardItem{},
	}
	categories := make(map[string]struct{})

	for _, item := range items {
		if item.Status.Saved() {
			out.Stats.Saved++
		}
		if item.Status != models.StatusActive {
			continue
		}

		out.Stats.TotalItems++
		if c := strings.ToLower(strings.TrimSpace(item.Category)); c != "" {
			categories[c] = struct{}{}
		}

		view := Annotate(item.Item, today)
		if view.DaysLeft != nil && *view.DaysLeft <= SoonDays {
			out.ExpiringSoon = append(out.ExpiringSoon, view)
		}
		if len(out.Recent) < recentLimit {
			out.Recent = append(out.Recent, view)
		}
	}
	out.Stats.Categories = len(categories)

	sort.SliceStable(out.ExpiringSoon, func(i, j int) bool {
		return *out.ExpiringSoon[i].DaysLeft < *out.ExpiringSoon[j].DaysLeft
	})
	return out, nil
}

// Annotate computes days left, status bucket and display label for an item.
func Annotate(item models.Item, today models.Date) models.DashboardItem {
	view := models.DashboardItem{
		ID:         item.ID,
		Name:       item.Name,
		Category:   item.Category,
		ExpiryDate: item.ExpiryDate,
		Status:     models.ExpiryUnknown,
	}

	switch {
	case !item.IsPerishable:
		view.Label = "Non-perishable"
	case item.ExpiryDate == nil:
		view.Label = "Unknown expiry"
	default:
		days := expiry.DaysLeft(*item.ExpiryDate, today)
		view.DaysLeft = &days
		view.Status = expiry.StatusFor(days)
		view.Label = daysLeftLabel(days)
		view.CanDonate = days >= 0 && days <= SoonDays
	}
	return view
}

func daysLeftLabel(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("Expired %d %s ago", -days, plural(-days))
	case days == 0:
		return "Expires today"
	default:
		return fmt.Sprintf("Expires in %d %s", days, plural(days))
	}
}

func plural(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
