package models

import "time"

// Request status lifecycle. PENDING → ACCEPTED → EN_ROUTE → COMPLETED → RATED,
// with CANCELLED reachable from any non-terminal pre-completion status.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusEnRoute   = "en_route"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusRated     = "rated"
)

// allowedTransitions is the authoritative from → to table. Statuses absent
// from the map (cancelled, rated) are terminal.
var allowedTransitions = map[string][]string{
	StatusPending:   {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusEnRoute, StatusCancelled},
	StatusEnRoute:   {StatusCompleted, StatusCancelled},
	StatusCompleted: {StatusRated},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ServiceRequest represents a customer's ask for a service, tracked through
// the status lifecycle above. Fields tied to a status a request has not yet
// reached stay nil; Eta and ProviderLocation are populated exactly while the
// request is en_route.
type ServiceRequest struct {
	ID               string     `json:"id"`
	CustomerID       string     `json:"customer_id"`
	ProviderID       *string    `json:"provider_id,omitempty"`
	Service          string     `json:"service"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	Location         Location   `json:"location"`
	Eta              *int       `json:"eta,omitempty"` // minutes, en_route only
	ProviderLocation *Location  `json:"provider_location,omitempty"`
	FinalPrice       *float64   `json:"final_price,omitempty"` // GHS, set at completion
	Rating           *int       `json:"rating,omitempty"`
	Review           *string    `json:"review,omitempty"`
	PaymentMethod    *string    `json:"payment_method,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	EnRouteAt        *time.Time `json:"en_route_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int        `json:"-"` // optimistic concurrency token
}

// CreateRequestRequest represents the data needed to post a new service request.
type CreateRequestRequest struct {
	Service     string   `json:"service" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Location    Location `json:"location" validate:"required"`
	ProviderID  string   `json:"provider_id,omitempty"` // preferred provider, optional
}

// UpdateStatusRequest carries a requested status change. FinalPrice is only
// honored on the completed transition, where the provider records what the
// job ended up costing.
type UpdateStatusRequest struct {
	Status     string   `json:"status" validate:"required,oneof=accepted en_route completed cancelled"`
	FinalPrice *float64 `json:"final_price,omitempty" validate:"omitempty,gt=0"`
}

// RatingRequest is the feedback submitted when a completed request is rated.
// PaymentMethodID identifies the stored card and is required for card
// payments; cash and mobile money settle off-platform.
type RatingRequest struct {
	Rating          int    `json:"rating" validate:"required,min=1,max=5"`
	Review          string `json:"review,omitempty"`
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=cash card mobile_money"`
	PaymentMethodID string `json:"payment_method_id,omitempty" validate:"required_if=PaymentMethod card"`
}
