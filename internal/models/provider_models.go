package models

import "time"

// Provider availability values.
const (
	AvailabilityAvailable = "available"
	AvailabilityBusy      = "busy"
	AvailabilityOffline   = "offline"
)

// Provider is a service professional's public listing: what they do, where
// they are, what they charge and how past customers rated them.
type Provider struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Avatar        string    `json:"avatar,omitempty"`
	Phone         string    `json:"phone"`
	Category      string    `json:"category"`
	Services      []string  `json:"services"`
	PriceRange    string    `json:"price_range"`
	Location      Location  `json:"location"`
	Experience    string    `json:"experience,omitempty"`
	Description   string    `json:"description,omitempty"`
	Availability  string    `json:"availability"`
	Verified      bool      `json:"verified"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	CompletedJobs int       `json:"completed_jobs"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProviderFilter narrows a directory listing.
type ProviderFilter struct {
	Category string `query:"category"`
	Query    string `query:"q"`
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
}
