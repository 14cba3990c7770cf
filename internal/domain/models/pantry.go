package models

import "time"

// ItemStatus tracks what happened to a pantry item.
type ItemStatus string

const (
	StatusActive    ItemStatus = "active"
	StatusConsumed  ItemStatus = "consumed"
	StatusDonated   ItemStatus = "donated"
	StatusDiscarded ItemStatus = "discarded"
)

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusActive, StatusConsumed, StatusDonated, StatusDiscarded:
		return true
	}
	return false
}

// Saved reports whether the item was kept out of the bin.
func (s ItemStatus) Saved() bool {
	return s == StatusConsumed || s == StatusDonated
}

// PantryItem is a confirmed receipt item stored for a user.
type PantryItem struct {
	Item
	UserID       string     `json:"userId"`
	ReceiptID    string     `json:"receiptId"`
	Store        string     `json:"store,omitempty"`
	PurchaseDate Date       `json:"purchaseDate"`
	Status       ItemStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ReceiptRecord is the stored header of a confirmed receipt.
type ReceiptRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Store        string    `json:"store,omitempty"`
	PurchaseDate Date      `json:"purchaseDate"`
	ItemCount    int       `json:"itemCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DefaultReminderDays is how far ahead reminders look when a user has not
// chosen a window.
const DefaultReminderDays = 2

// Pantry holds per-user settings, created alongside the account.
type Pantry struct {
	UserID       string    `json:"userId"`
	ReminderDays int       `json:"reminderDays"`
	NotifyPhone  string    `json:"notifyPhone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PantrySettingsRequest is the body of PUT /api/pantry/settings.
type PantrySettingsRequest struct {
	ReminderDays *int    `json:"reminderDays"`
	NotifyPhone  *string `json:"notifyPhone"`
}

// StatusUpdateRequest is the body of PATCH /api/pantry/:id/status.
type StatusUpdateRequest struct {
	Status ItemStatus `json:"status" binding:"required"`
}
