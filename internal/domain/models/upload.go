package models

import "time"

// UploadStatus is the phase of the receipt upload screen.
type UploadStatus string

const (
	UploadIdle    UploadStatus = "idle"
	UploadLoading UploadStatus = "loading"
	UploadSuccess UploadStatus = "success"
	UploadError   UploadStatus = "error"
)

// UploadState replaces the scattered loading/message/complete flags of the
// upload screen with one record.
type UploadState struct {
	Status    UploadStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	ItemCount int          `json:"itemCount,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// DraftView is a receipt under review together with the items currently in
// edit mode.
type DraftView struct {
	Receipt Receipt           `json:"receipt"`
	Editing map[string]Item   `json:"editing,omitempty"`
	Labels  map[string]string `json:"labels"`
}

// DraftUpdateRequest is the body of PUT /api/receipts/draft.
type DraftUpdateRequest struct {
	Store        *string `json:"store"`
	PurchaseDate *string `json:"purchaseDate"`
}
