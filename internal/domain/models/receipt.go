package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Item is a single receipt line as reviewed by the user.
type Item struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	IsPerishable bool     `json:"isPerishable"`
	ExpiryDays   *int     `json:"expiryDays,omitempty"`
	ExpiryDate   *Date    `json:"expiryDate,omitempty"`
}

// NewItem returns an empty perishable item with a fresh identifier.
func NewItem(name string) Item {
	return Item{ID: uuid.NewString(), Name: name, IsPerishable: true}
}

// Clone deep-copies the optional fields so edits on the copy never leak back.
func (i Item) Clone() Item {
	out := i
	if i.Quantity != nil {
		q := *i.Quantity
		out.Quantity = &q
	}
	if i.Price != nil {
		p := *i.Price
		out.Price = &p
	}
	if i.ExpiryDays != nil {
		d := *i.ExpiryDays
		out.ExpiryDays = &d
	}
	if i.ExpiryDate != nil {
		e := *i.ExpiryDate
		out.ExpiryDate = &e
	}
	return out
}

// Receipt is one purchase event owning a set of items.
type Receipt struct {
	ID           string `json:"id"`
	Store        string `json:"store,omitempty"`
	PurchaseDate Date   `json:"purchaseDate"`
	Items        []Item `json:"items"`
}

// ExtractedReceipt is what the OCR collaborator returns for a receipt image.
type ExtractedReceipt struct {
	Store string `json:"store"`
	Date  *Date  `json:"date,omitempty"`
	Items []Item `json:"items"`
}

// NumericInput carries a numeric form field exactly as the client sent it, so
// malformed values can degrade to "unknown" instead of failing the request.
type NumericInput string

// UnmarshalJSON accepts both JSON numbers and strings.
func (n *NumericInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericInput(strings.TrimSpace(s))
		return nil
	}
	*n = NumericInput(string(data))
	return nil
}

// ItemPatch lists the fields a user may change while editing an item. Nil
// fields are left as they are.
type ItemPatch struct {
	Name         *string       `json:"name"`
	Category     *string       `json:"category"`
	Quantity     *float64      `json:"quantity"`
	Price        *float64      `json:"price"`
	IsPerishable *bool         `json:"isPerishable"`
	ExpiryDays   *NumericInput `json:"expiryDays"`
	ExpiryDate   *string       `json:"expiryDate"`
}
