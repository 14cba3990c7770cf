// Package memory is a process-local repository.Store used when no MongoDB URI
// is configured and in tests. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/repository"
)

// Store keeps every collection in maps guarded by one RWMutex.
type Store struct {
	mu       sync.RWMutex
	users    map[string]models.User
	emails   map[string]string
	pantries map[string]models.Pantry
	receipts map[string]models.ReceiptRecord
	items    map[string]models.PantryItem
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]models.User),
		emails:   make(map[string]string),
		pantries: make(map[string]models.Pantry),
		receipts: make(map[string]models.ReceiptRecord),
		items:    make(map[string]models.PantryItem),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(user.Email)
	if _, ok := s.users[user.UserID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := s.emails[email]; ok {
		return repository.ErrDuplicate
	}
	user.Email = email
	s.users[user.UserID] = user
	s.emails[email] = user.UserID
	return nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) CreatePantry(_ context.Context, pantry models.Pantry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pantries[pantry.UserID]; ok {
		return repository.ErrDuplicate
	}
	s.pantries[pantry.UserID] = pantry
	return nil
}

func (s *Store) GetPantry(_ context.Context, userID string) (models.Pantry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pantries[userID]
	if !ok {
		return models.Pantry{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdatePantry(_ context.Context, pantry models.Pantry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pantries[pantry.UserID]; !ok {
		return repository.ErrNotFound
	}
	s.pantries[pantry.UserID] = pantry
	return nil
}

func (s *Store) ListPantries(_ context.Context) ([]models.Pantry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Pantry, 0, len(s.pantries))
	for _, p := range s.pantries {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) SaveReceipt(_ context.Context, receipt models.ReceiptRecord, items []models.PantryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[receipt.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, item := range items {
		if _, ok := s.items[item.ID]; ok {
			return repository.ErrDuplicate
		}
	}
	s.receipts[receipt.ID] = receipt
	for _, item := range items {
		item.Item = item.Item.Clone()
		s.items[item.ID] = item
	}
	return nil
}

func (s *Store) ListItems(_ context.Context, userID string, status models.ItemStatus) ([]models.PantryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PantryItem
	for _, item := range s.items {
		if item.UserID != userID {
			continue
		}
		if status != "" && item.Status != status {
			continue
		}
		item.Item = item.Item.Clone()
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetItem(_ context.Context, userID, itemID string) (models.PantryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return models.PantryItem{}, repository.ErrNotFound
	}
	item.Item = item.Item.Clone()
	return item, nil
}

func (s *Store) UpdateItemStatus(_ context.Context, userID, itemID string, status models.ItemStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return repository.ErrNotFound
	}
	item.Status = status
	item.UpdatedAt = at
	s.items[itemID] = item
	return nil
}

func (s *Store) DeleteItem(_ context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.items, itemID)
	return nil
}

func (s *Store) Close(context.Context) error { return nil }
