package models

// OutboundMessageRequest is a text message pushed to a user's phone.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// ExpiryReminder summarises what a reminder sweep sent to one user.
type ExpiryReminder struct {
	UserID string   `json:"userId"`
	To     string   `json:"to"`
	Items  []string `json:"items"`
}
