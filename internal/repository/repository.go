// Package repository defines the storage ports used by the services. The
// mongodb package is the production adapter; memory backs local runs and
// tests.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

var (
	// ErrNotFound is returned when a document does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique key (user id or email) is taken.
	ErrDuplicate = errors.New("duplicate document")
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// PantryRepository persists pantry settings, confirmed receipts and their items.
type PantryRepository interface {
	CreatePantry(ctx context.Context, pantry models.Pantry) error
	GetPantry(ctx context.Context, userID string) (models.Pantry, error)
	UpdatePantry(ctx context.Context, pantry models.Pantry) error
	ListPantries(ctx context.Context) ([]models.Pantry, error)

	SaveReceipt(ctx context.Context, receipt models.ReceiptRecord, items []models.PantryItem) error
	// ListItems returns a user's items, newest first. An empty status lists all.
	ListItems(ctx context.Context, userID string, status models.ItemStatus) ([]models.PantryItem, error)
	GetItem(ctx context.Context, userID, itemID string) (models.PantryItem, error)
	UpdateItemStatus(ctx context.Context, userID, itemID string, status models.ItemStatus, at time.Time) error
	DeleteItem(ctx context.Context, userID, itemID string) error
}

// Store is the full storage surface.
type Store interface {
	UserRepository
	PantryRepository
	Close(ctx context.Context) error
}
