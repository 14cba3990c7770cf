package models

// DonationCenter is a food bank, shelter or pantry that accepts donations.
type DonationCenter struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Distance       string   `json:"distance,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	Hours          string   `json:"hours,omitempty"`
	AcceptingItems []string `json:"acceptingItems,omitempty"`
}

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DonationSearchResult is returned by the donation endpoints.
type DonationSearchResult struct {
	Location   Location         `json:"location"`
	Centers    []DonationCenter `json:"centers"`
	HasResults bool             `json:"hasResults"`
}
