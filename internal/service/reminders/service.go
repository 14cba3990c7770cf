package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/expiry"
	"github.com/mamadbah2/expiry-tracker/internal/metrics"
	"github.com/mamadbah2/expiry-tracker/internal/repository"
	"github.com/mamadbah2/expiry-tracker/pkg/clients/whatsapp"
)

// Service finds items about to expire and texts their owners.
type Service struct {
	repo    repository.PantryRepository
	client  whatsapp.Client
	metrics *metrics.Metrics
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new reminder service.
func NewService(repo repository.PantryRepository, client whatsapp.Client, m *metrics.Metrics, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, client: client, metrics: m, loc: loc, logger: logger, now: time.Now}
}

type dueItem struct {
	name     string
	daysLeft int
}

// Sweep sends one message per pantry that has a phone and at least one
// active item expiring within its reminder window. A failure for one user
// does not stop the others; all failures are joined into the returned error.
func (s *Service) Sweep(ctx context.Context) ([]models.ExpiryReminder, error) {
	pantries, err := s.repo.ListPantries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pantries: %w", err)
	}

	today := models.DateOf(s.now().In(s.loc))
	var sent []models.ExpiryReminder
	var errs []error

	for _, pantry := range pantries {
		if pantry.NotifyPhone == "" {
			continue
		}

		due, err := s.dueItems(ctx, pantry, today)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", pantry.UserID, err))
			continue
		}
		if len(due) == 0 {
			continue
		}

		req := models.OutboundMessageRequest{To: pantry.NotifyPhone, Message: buildMessage(due)}
		if _, err := s.client.SendTextMessage(ctx, req); err != nil {
			s.metrics.ReminderSent(false)
			s.logger.Error("failed to send expiry reminder", zap.String("user_id", pantry.UserID), zap.Error(err))
			errs = append(errs, fmt.Errorf("user %s: %w", pantry.UserID, err))
			continue
		}
		s.metrics.ReminderSent(true)

		names := make([]string, 0, len(due))
		for _, d := range due {
			names = append(names, d.name)
		}
		sent = append(sent, models.ExpiryReminder{UserID: pantry.UserID, To: pantry.NotifyPhone, Items: names})
		s.logger.Info("expiry reminder sent", zap.String("user_id", pantry.UserID), zap.Int("items", len(due)))
	}

	return sent, errors.Join(errs...)
}

func (s *Service) dueItems(ctx context.Context, pantry models.Pantry, today models.Date) ([]dueItem, error) {
	items, err := s.repo.ListItems(ctx, pantry.UserID, models.StatusActive)
	if err != nil {
		return nil, err
	}

	var due []dueItem
	for _, item := range items {
		if !item.IsPerishable || item.ExpiryDate == nil {
			continue
		}
		days := expiry.DaysLeft(*item.ExpiryDate, today)
		if days < 0 || days > pantry.ReminderDays {
			continue
		}
		due = append(due, dueItem{name: item.Name, daysLeft: days})
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].daysLeft < due[j].daysLeft })
	return due, nil
}

// buildMessage renders the reminder text, soonest first.
func buildMessage(due []dueItem) string {
	var b strings.Builder
	b.WriteString("Heads up! These pantry items expire soon:\n")
	for _, d := range due {
		switch d.daysLeft {
		case 0:
			fmt.Fprintf(&b, "- %s: expires today\n", d.name)
		case 1:
			fmt.Fprintf(&b, "- %s: expires tomorrow\n", d.name)
		default:
			fmt.Fprintf(&b, "- %s: expires in %d days\n", d.name, d.daysLeft)
		}
	}
	b.WriteString("Use them up or donate them before they go to waste.")
	return b.String()
}
