package mongodb

import (
	"strings"
	"time"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

type userDoc struct {
	UserID       string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toUserDoc(u models.User) userDoc {
	return userDoc{
		UserID:       u.UserID,
		Name:         u.Name,
		Email:        strings.ToLower(strings.TrimSpace(u.Email)),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
	}
}

func (d userDoc) toModel() models.User {
	return models.User{
		UserID:       d.UserID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

type pantryDoc struct {
	UserID       string    `bson:"_id"`
	ReminderDays int       `bson:"reminder_days"`
	NotifyPhone  string    `bson:"notify_phone,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toPantryDoc(p models.Pantry) pantryDoc {
	return pantryDoc{
		UserID:       p.UserID,
		ReminderDays: p.ReminderDays,
		NotifyPhone:  p.NotifyPhone,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
}

func (d pantryDoc) toModel() models.Pantry {
	return models.Pantry{
		UserID:       d.UserID,
		ReminderDays: d.ReminderDays,
		NotifyPhone:  d.NotifyPhone,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type receiptDoc struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	Store        string    `bson:"store,omitempty"`
	PurchaseDate time.Time `bson:"purchase_date"`
	ItemCount    int       `bson:"item_count"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toReceiptDoc(r models.ReceiptRecord) receiptDoc {
	return receiptDoc{
		ID:           r.ID,
		UserID:       r.UserID,
		Store:        r.Store,
		PurchaseDate: r.PurchaseDate.Time,
		ItemCount:    r.ItemCount,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

// itemDoc stores dates as UTC midnight timestamps.
type itemDoc struct {
	ID           string     `bson:"_id"`
	UserID       string     `bson:"user_id"`
	ReceiptID    string     `bson:"receipt_id"`
	Store        string     `bson:"store,omitempty"`
	PurchaseDate time.Time  `bson:"purchase_date"`
	Name         string     `bson:"name"`
	Category     string     `bson:"category,omitempty"`
	Quantity     *float64   `bson:"quantity,omitempty"`
	Price        *float64   `bson:"price,omitempty"`
	IsPerishable bool       `bson:"is_perishable"`
	ExpiryDays   *int       `bson:"expiry_days,omitempty"`
	ExpiryDate   *time.Time `bson:"expiry_date,omitempty"`
	Status       string     `bson:"status"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

func toItemDoc(p models.PantryItem) itemDoc {
	doc := itemDoc{
		ID:           p.ID,
		UserID:       p.UserID,
		ReceiptID:    p.ReceiptID,
		Store:        p.Store,
		PurchaseDate: p.PurchaseDate.Time,
		Name:         p.Name,
		Category:     p.Category,
		Quantity:     p.Quantity,
		Price:        p.Price,
		IsPerishable: p.IsPerishable,
		ExpiryDays:   p.ExpiryDays,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
	if p.ExpiryDate != nil {
		t := p.ExpiryDate.Time
		doc.ExpiryDate = &t
	}
	return doc
}

func (d itemDoc) toModel() models.PantryItem {
	item := models.PantryItem{
		Item: models.Item{
			ID:           d.ID,
			Name:         d.Name,
			Category:     d.Category,
			Quantity:     d.Quantity,
			Price:        d.Price,
			IsPerishable: d.IsPerishable,
			ExpiryDays:   d.ExpiryDays,
		},
		UserID:       d.UserID,
		ReceiptID:    d.ReceiptID,
		Store:        d.Store,
		PurchaseDate: models.DateOf(d.PurchaseDate.UTC()),
		Status:       models.ItemStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.ExpiryDate != nil {
		item.ExpiryDate = models.DateOf(d.ExpiryDate.UTC()).Ptr()
	}
	return item
}
