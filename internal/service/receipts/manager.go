// Package receipts holds the per-user receipt review: upload and extraction,
// item edits that keep expiry fields consistent, and confirmation into the
// pantry.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/expiry"
	"github.com/mamadbah2/expiry-tracker/internal/metrics"
)

// User-facing messages.
const (
	MsgNoImage  = "Please select a receipt image first!"
	MsgNotImage = "Please select an image file."
)

var (
	ErrNoImage          = errors.New("no receipt image")
	ErrNotImage         = errors.New("file is not an image")
	ErrUploadInProgress = errors.New("a receipt is already being processed")
	ErrExtraction       = errors.New("receipt extraction failed")
	ErrNoDraft          = errors.New("no receipt under review")
	ErrItemNotFound     = errors.New("item not found")
	ErrNotEditing       = errors.New("item is not being edited")
	ErrEditsPending     = errors.New("save or cancel open edits first")
	ErrUnnamedItem      = errors.New("every item needs a name")
	ErrInvalidDate      = errors.New("invalid date")
)

// Extractor reads a receipt image.
type Extractor interface {
	ExtractReceipt(ctx context.Context, image []byte, mediaType string) (models.ExtractedReceipt, error)
}

// ShelfLifeEstimator suggests an expiry day count for an item name.
type ShelfLifeEstimator interface {
	EstimateShelfLife(ctx context.Context, itemName string) (int, error)
}

// ReceiptSaver persists a confirmed receipt.
type ReceiptSaver interface {
	SaveReceipt(ctx context.Context, receipt models.ReceiptRecord, items []models.PantryItem) error
}

// Manager keeps every user's receipt review in memory.
type Manager struct {
	sessions map[string]*session
	mu       sync.RWMutex

	extractor Extractor
	estimator ShelfLifeEstimator
	saver     ReceiptSaver
	metrics   *metrics.Metrics
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager wires a new manager. loc decides what "today" is for receipts
// without a readable purchase date.
func NewManager(extractor Extractor, estimator ShelfLifeEstimator, saver ReceiptSaver, m *metrics.Metrics, loc *time.Location, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Manager{
		sessions:  make(map[string]*session),
		extractor: extractor,
		estimator: estimator,
		saver:     saver,
		metrics:   m,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

func (m *Manager) today() models.Date {
	return models.DateOf(m.now().In(m.loc))
}

// session returns the user's session, creating it when create is set. The
// caller must hold mu.
func (m *Manager) session(userID string, create bool) *session {
	s, ok := m.sessions[userID]
	if !ok && create {
		s = newSession()
		m.sessions[userID] = s
	}
	return s
}

func (m *Manager) setState(s *session, status models.UploadStatus, message string, count int) {
	s.state = models.UploadState{Status: status, Message: message, ItemCount: count, UpdatedAt: m.now().UTC()}
}

// State returns the upload state; idle when the user has no session.
func (m *Manager) State(userID string) models.UploadState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s := m.session(userID, false); s != nil {
		return s.state
	}
	return models.UploadState{Status: models.UploadIdle}
}

// Upload validates the image, runs extraction and replaces the draft with
// the result. Validation failures leave the session untouched.
func (m *Manager) Upload(ctx context.Context, userID string, image []byte) (models.DraftView, error) {
	if len(image) == 0 {
		m.metrics.ReceiptProcessed("rejected")
		return models.DraftView{}, ErrNoImage
	}
	mediaType := mimetype.Detect(image)
	if !strings.HasPrefix(mediaType.String(), "image/") {
		m.metrics.ReceiptProcessed("rejected")
		return models.DraftView{}, fmt.Errorf("%w: detected %s", ErrNotImage, mediaType.String())
	}

	m.mu.Lock()
	s := m.session(userID, true)
	if s.state.Status == models.UploadLoading {
		m.mu.Unlock()
		return models.DraftView{}, ErrUploadInProgress
	}
	m.setState(s, models.UploadLoading, "", 0)
	m.mu.Unlock()

	extracted, err := m.extract(ctx, image, baseMediaType(mediaType))

	m.mu.Lock()
	defer m.mu.Unlock()
	s = m.session(userID, true)

	if err != nil {
		m.metrics.ReceiptProcessed("error")
		m.logger.Warn("receipt extraction failed", zap.String("user_id", userID), zap.Error(err))
		m.setState(s, models.UploadError, "Error processing receipt: "+errorText(err), 0)
		return models.DraftView{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	purchaseDate := m.today()
	if extracted.Date != nil && !extracted.Date.IsZero() {
		purchaseDate = *extracted.Date
	}

	items := make([]models.Item, 0, len(extracted.Items))
	for _, item := range extracted.Items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		items = append(items, expiry.ClassifyDefault(item, purchaseDate))
	}

	s.draft = &models.Receipt{
		ID:           uuid.NewString(),
		Store:        extracted.Store,
		PurchaseDate: purchaseDate,
		Items:        items,
	}
	s.editing = make(map[string]models.Item)
	m.setState(s, models.UploadSuccess,
		fmt.Sprintf("Receipt processed! %d items identified with expiry dates.", len(items)), len(items))
	m.metrics.ReceiptProcessed("success")

	m.logger.Info("receipt processed", zap.String("user_id", userID), zap.Int("items", len(items)))
	return s.view(), nil
}

// extract runs the extractor, turning a panic into an error so the session
// never stays in the loading state.
func (m *Manager) extract(ctx context.Context, image []byte, mediaType string) (out models.ExtractedReceipt, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return m.extractor.ExtractReceipt(ctx, image, mediaType)
}

func baseMediaType(mt *mimetype.MIME) string {
	value, _, _ := strings.Cut(mt.String(), ";")
	return value
}

func errorText(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}

// Draft returns the receipt under review.
func (m *Manager) Draft(userID string) (models.DraftView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session(userID, false)
	if s == nil || s.draft == nil {
		return models.DraftView{}, ErrNoDraft
	}
	return s.view(), nil
}

// UpdateDraft changes the store and/or purchase date. A new purchase date
// rebases every item that has an expiry day count, open edits included.
func (m *Manager) UpdateDraft(userID string, req models.DraftUpdateRequest) (models.DraftView, error) {
	var newDate *models.Date
	if req.PurchaseDate != nil {
		d, err := models.ParseDate(*req.PurchaseDate)
		if err != nil {
			return models.DraftView{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
		newDate = &d
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(userID, false)
	if s == nil || s.draft == nil {
		return models.DraftView{}, ErrNoDraft
	}

	if req.Store != nil {
		s.draft.Store = strings.TrimSpace(*req.Store)
	}
	if newDate != nil {
		s.draft.PurchaseDate = *newDate
		s.draft.Items = expiry.RecalculateAll(s.draft.Items, *newDate)
		for id, item := range s.editing {
			s.editing[id] = expiry.RecalculateAll([]models.Item{item}, *newDate)[0]
		}
	}
	return s.view(), nil
}

// AddItem appends an empty perishable item and opens it for editing. Without
// a draft a blank receipt dated today is started.
func (m *Manager) AddItem(userID string) (models.DraftView, models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(userID, true)
	if s.draft == nil {
		s.draft = &models.Receipt{ID: uuid.NewString(), PurchaseDate: m.today()}
	}

	item := models.NewItem("")
	s.draft.Items = append(s.draft.Items, item)
	s.editing[item.ID] = item.Clone()
	return s.view(), item, nil
}

// BeginEdit opens an item for editing. Opening an item twice keeps the
// existing working copy.
func (m *Manager) BeginEdit(userID, itemID string) (models.DraftView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, idx, err := m.locate(userID, itemID)
	if err != nil {
		return models.DraftView{}, err
	}
	if _, ok := s.editing[itemID]; !ok {
		s.editing[itemID] = s.draft.Items[idx].Clone()
	}
	return s.view(), nil
}

// UpdateEdit applies patch to the working copy. Perishability is applied
// first, then the day count, then the date; a malformed day count leaves the
// expiry unknown.
func (m *Manager) UpdateEdit(userID, itemID string, patch models.ItemPatch) (models.DraftView, error) {
	var newDate *models.Date
	clearDate := false
	if patch.ExpiryDate != nil {
		if strings.TrimSpace(*patch.ExpiryDate) == "" {
			clearDate = true
		} else {
			d, err := models.ParseDate(*patch.ExpiryDate)
			if err != nil {
				return models.DraftView{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
			}
			newDate = &d
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, _, err := m.locate(userID, itemID)
	if err != nil {
		return models.DraftView{}, err
	}
	item, ok := s.editing[itemID]
	if !ok {
		return models.DraftView{}, ErrNotEditing
	}

	purchaseDate := s.draft.PurchaseDate
	if patch.Name != nil {
		item.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		item.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Quantity != nil {
		q := *patch.Quantity
		item.Quantity = &q
	}
	if patch.Price != nil {
		p := *patch.Price
		item.Price = &p
	}
	if patch.IsPerishable != nil {
		item = expiry.SetPerishable(item, *patch.IsPerishable, purchaseDate)
	}
	if item.IsPerishable {
		if patch.ExpiryDays != nil {
			item = expiry.ApplyRawExpiryDays(item, string(*patch.ExpiryDays), purchaseDate)
		}
		switch {
		case newDate != nil:
			item = expiry.ApplyExpiryDate(item, *newDate, purchaseDate)
		case clearDate:
			item.ExpiryDays = nil
			item.ExpiryDate = nil
		}
	}

	s.editing[itemID] = item
	return s.view(), nil
}

// SaveEdit commits the working copy into the draft.
func (m *Manager) SaveEdit(userID, itemID string) (models.DraftView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, idx, err := m.locate(userID, itemID)
	if err != nil {
		return models.DraftView{}, err
	}
	item, ok := s.editing[itemID]
	if !ok {
		return models.DraftView{}, ErrNotEditing
	}
	s.draft.Items[idx] = item
	delete(s.editing, itemID)
	return s.view(), nil
}

// CancelEdit drops the working copy.
func (m *Manager) CancelEdit(userID, itemID string) (models.DraftView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, _, err := m.locate(userID, itemID)
	if err != nil {
		return models.DraftView{}, err
	}
	if _, ok := s.editing[itemID]; !ok {
		return models.DraftView{}, ErrNotEditing
	}
	delete(s.editing, itemID)
	return s.view(), nil
}

// DeleteItem removes an item and any open edit of it.
func (m *Manager) DeleteItem(userID, itemID string) (models.DraftView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, idx, err := m.locate(userID, itemID)
	if err != nil {
		return models.DraftView{}, err
	}
	s.draft.Items = append(s.draft.Items[:idx:idx], s.draft.Items[idx+1:]...)
	delete(s.editing, itemID)
	return s.view(), nil
}

// EstimateItem asks the estimator for the item's shelf life and applies it to
// the working copy when the item is open, to the draft otherwise.
func (m *Manager) EstimateItem(ctx context.Context, userID, itemID string) (models.DraftView, error) {
	m.mu.RLock()
	s, idx, err := m.locate(userID, itemID)
	var name string
	if err == nil {
		name = s.draft.Items[idx].Name
		if item, ok := s.editing[itemID]; ok {
			name = item.Name
		}
	}
	m.mu.RUnlock()
	if err != nil {
		return models.DraftView{}, err
	}
	if strings.TrimSpace(name) == "" {
		return models.DraftView{}, ErrUnnamedItem
	}

	days, err := m.estimator.EstimateShelfLife(ctx, name)
	if err != nil {
		return models.DraftView{}, fmt.Errorf("estimate shelf life for %q: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, idx, err = m.locate(userID, itemID)
	if err != nil {
		return models.DraftView{}, err
	}
	p := s.draft.PurchaseDate
	if item, ok := s.editing[itemID]; ok {
		item.IsPerishable = true
		s.editing[itemID] = expiry.ApplyExpiryDays(item, days, p)
	} else {
		item := s.draft.Items[idx]
		item.IsPerishable = true
		s.draft.Items[idx] = expiry.ApplyExpiryDays(item, days, p)
	}
	return s.view(), nil
}

// Confirm stores the draft in the user's pantry and resets the session. The
// draft is snapshotted so storage is not called under the lock.
func (m *Manager) Confirm(ctx context.Context, userID string) (models.ReceiptRecord, error) {
	m.mu.RLock()
	s := m.session(userID, false)
	if s == nil || s.draft == nil {
		m.mu.RUnlock()
		return models.ReceiptRecord{}, ErrNoDraft
	}
	if len(s.editing) > 0 {
		m.mu.RUnlock()
		return models.ReceiptRecord{}, ErrEditsPending
	}
	draft := s.view().Receipt
	m.mu.RUnlock()

	now := m.now().UTC()
	record := models.ReceiptRecord{
		ID:           draft.ID,
		UserID:       userID,
		Store:        draft.Store,
		PurchaseDate: draft.PurchaseDate,
		ItemCount:    len(draft.Items),
		CreatedAt:    now,
	}
	items := make([]models.PantryItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		if strings.TrimSpace(item.Name) == "" {
			return models.ReceiptRecord{}, ErrUnnamedItem
		}
		items = append(items, models.PantryItem{
			Item:         item,
			UserID:       userID,
			ReceiptID:    draft.ID,
			Store:        draft.Store,
			PurchaseDate: draft.PurchaseDate,
			Status:       models.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := m.saver.SaveReceipt(ctx, record, items); err != nil {
		return models.ReceiptRecord{}, fmt.Errorf("save receipt: %w", err)
	}
	m.metrics.PantryItems(string(models.StatusActive), len(items))

	m.mu.Lock()
	if s := m.session(userID, false); s != nil && s.draft != nil && s.draft.ID == draft.ID {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	m.logger.Info("receipt confirmed", zap.String("user_id", userID), zap.String("receipt_id", record.ID), zap.Int("items", len(items)))
	return record, nil
}

// Discard drops the user's session.
func (m *Manager) Discard(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// locate finds an item in the user's draft. The caller must hold mu.
func (m *Manager) locate(userID, itemID string) (*session, int, error) {
	s := m.session(userID, false)
	if s == nil || s.draft == nil {
		return nil, -1, ErrNoDraft
	}
	idx := s.indexOf(itemID)
	if idx < 0 {
		return nil, -1, ErrItemNotFound
	}
	return s, idx, nil
}
