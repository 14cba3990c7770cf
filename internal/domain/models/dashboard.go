package models

// ExpiryStatus buckets an item by how close it is to expiring.
type ExpiryStatus string

const (
	ExpiryExpired  ExpiryStatus = "expired"
	ExpiryCritical ExpiryStatus = "critical"
	ExpiryWarning  ExpiryStatus = "warning"
	ExpiryFresh    ExpiryStatus = "fresh"
	ExpiryUnknown  ExpiryStatus = "unknown"
)

// DashboardItem is a pantry item annotated for display.
type DashboardItem struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Category   string       `json:"category,omitempty"`
	ExpiryDate *Date        `json:"expiryDate,omitempty"`
	DaysLeft   *int         `json:"daysLeft,omitempty"`
	Status     ExpiryStatus `json:"status"`
	Label      string       `json:"label"`
	CanDonate  bool         `json:"canDonate"`
}

// DashboardStats are the headline counters.
type DashboardStats struct {
	TotalItems int `json:"total"`
	Categories int `json:"categories"`
	Saved      int `json:"saved"`
}

// Dashboard is the payload of GET /api/dashboard.
type Dashboard struct {
	Stats        DashboardStats  `json:"stats"`
	ExpiringSoon []DashboardItem `json:"expiringSoon"`
	Recent       []DashboardItem `json:"recent"`
}
