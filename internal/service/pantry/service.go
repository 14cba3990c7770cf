package pantry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/metrics"
	"github.com/mamadbah2/expiry-tracker/internal/repository"
	sheetsrepo "github.com/mamadbah2/expiry-tracker/internal/repository/sheets"
	"github.com/mamadbah2/expiry-tracker/pkg/clients/whatsapp"
)

const (
	exportSheet       = "Pantry"
	exportRange       = "Pantry!A:I"
	exportHeaderRange = "Pantry!A1:I1"
	maxReminderDays   = 30
)

var (
	ErrInvalidStatus   = errors.New("unknown item status")
	ErrInvalidSettings = errors.New("invalid pantry settings")
	ErrExportDisabled  = errors.New("pantry export is not configured")
)

var exportHeader = []interface{}{"User", "Purchase date", "Store", "Item", "Category", "Quantity", "Price", "Expiry date", "Status"}

// Service manages confirmed pantry items and per-user settings.
type Service struct {
	repo    repository.PantryRepository
	sheets  sheetsrepo.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new pantry service. sheets may be nil, in which case
// Export returns ErrExportDisabled.
func NewService(repo repository.PantryRepository, sheets sheetsrepo.Repository, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, sheets: sheets, metrics: m, logger: logger, now: time.Now}
}

// List returns the user's items, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID string, status models.ItemStatus) ([]models.PantryItem, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	items, err := s.repo.ListItems(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list pantry items: %w", err)
	}
	if items == nil {
		items = []models.PantryItem{}
	}
	return items, nil
}

// UpdateStatus records that an item was consumed, donated, discarded, or
// puts it back to active.
func (s *Service) UpdateStatus(ctx context.Context, userID, itemID string, status models.ItemStatus) (models.PantryItem, error) {
	if !status.Valid() {
		return models.PantryItem{}, ErrInvalidStatus
	}
	if err := s.repo.UpdateItemStatus(ctx, userID, itemID, status, s.now().UTC()); err != nil {
		return models.PantryItem{}, err
	}
	s.metrics.PantryItems(string(status), 1)
	return s.repo.GetItem(ctx, userID, itemID)
}

// Delete removes an item from the pantry.
func (s *Service) Delete(ctx context.Context, userID, itemID string) error {
	return s.repo.DeleteItem(ctx, userID, itemID)
}

// Settings returns the user's pantry settings.
func (s *Service) Settings(ctx context.Context, userID string) (models.Pantry, error) {
	return s.repo.GetPantry(ctx, userID)
}

// UpdateSettings changes the reminder window and/or phone. An empty phone
// turns reminders off.
func (s *Service) UpdateSettings(ctx context.Context, userID string, req models.PantrySettingsRequest) (models.Pantry, error) {
	pantry, err := s.repo.GetPantry(ctx, userID)
	if err != nil {
		return models.Pantry{}, err
	}

	if req.ReminderDays != nil {
		if *req.ReminderDays < 0 || *req.ReminderDays > maxReminderDays {
			return models.Pantry{}, fmt.Errorf("%w: reminderDays must be between 0 and %d", ErrInvalidSettings, maxReminderDays)
		}
		pantry.ReminderDays = *req.ReminderDays
	}
	if req.NotifyPhone != nil {
		phone := strings.TrimSpace(*req.NotifyPhone)
		if phone != "" {
			phone = whatsapp.NormalizePhone(phone)
			if phone == "" {
				return models.Pantry{}, fmt.Errorf("%w: notifyPhone is not a phone number", ErrInvalidSettings)
			}
		}
		pantry.NotifyPhone = phone
	}

	pantry.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdatePantry(ctx, pantry); err != nil {
		return models.Pantry{}, fmt.Errorf("update pantry settings: %w", err)
	}
	return pantry, nil
}

// Export appends every item of the user to the export sheet, writing the
// header first when the sheet is empty. It returns the number of item rows.
func (s *Service) Export(ctx context.Context, userID string) (int, error) {
	if s.sheets == nil {
		return 0, ErrExportDisabled
	}

	items, err := s.repo.ListItems(ctx, userID, "")
	if err != nil {
		return 0, fmt.Errorf("list pantry items: %w", err)
	}

	if err := s.sheets.EnsureSheet(ctx, exportSheet); err != nil {
		return 0, fmt.Errorf("prepare export sheet: %w", err)
	}

	header, err := s.sheets.ReadRange(ctx, exportHeaderRange)
	if err != nil {
		return 0, fmt.Errorf("read export header: %w", err)
	}

	rows := make([][]interface{}, 0, len(items)+1)
	if len(header) == 0 {
		rows = append(rows, exportHeader)
	}
	for _, item := range items {
		rows = append(rows, exportRow(item))
	}
	if err := s.sheets.AppendRows(ctx, exportRange, rows); err != nil {
		return 0, fmt.Errorf("export pantry: %w", err)
	}

	s.logger.Info("pantry exported", zap.String("user_id", userID), zap.Int("items", len(items)))
	return len(items), nil
}

func exportRow(item models.PantryItem) []interface{} {
	return []interface{}{
		item.UserID,
		item.PurchaseDate.String(),
		item.Store,
		item.Name,
		item.Category,
		optionalFloat(item.Quantity),
		optionalFloat(item.Price),
		optionalDate(item.ExpiryDate),
		string(item.Status),
	}
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
