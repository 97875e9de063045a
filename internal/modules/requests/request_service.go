package requests

import (
	"context"
	"fmt"
	"log"
	"time"

	"boadwuma-backend/internal/models"
	"boadwuma-backend/internal/platform/events"
	"boadwuma-backend/internal/platform/ws"
)

// GeoProviderInterface supplies ETA and provider position while a request is
// en route. Backed by the simulated feed today, a real one eventually.
type GeoProviderInterface interface {
	EstimateEta() int
	ProviderPosition(origin models.Location) models.Location
}

// TrackingRegistryInterface is the slice of the tracking registry the engine
// needs: deactivating the overlay when a request completes or is cancelled.
type TrackingRegistryInterface interface {
	Deactivate(ctx context.Context, requestID string) error
}

// ChatLogInterface lets the engine append status messages to a request's chat.
type ChatLogInterface interface {
	AppendStatusMessage(ctx context.Context, requestID, senderID, senderType, text string) error
}

// NotifierInterface delivers lifecycle notifications.
type NotifierInterface interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// UserDirectoryInterface resolves the email a notification goes to.
type UserDirectoryInterface interface {
	GetEmail(ctx context.Context, userID string) (string, error)
}

// ProviderDirectoryInterface records rating outcomes on the provider listing.
type ProviderDirectoryInterface interface {
	RecordRating(ctx context.Context, providerUserID string, rating int) error
}

// PaymentServiceInterface defines the contract for a payment processing service.
type PaymentServiceInterface interface {
	ProcessPayment(ctx context.Context, customerID string, amount float64, paymentMethodID string) (string, error)
}

// LiveFeedInterface pushes events to connected websocket subscribers, so
// clients watching a request see status changes without refetching.
type LiveFeedInterface interface {
	Publish(ev ws.Event)
}

// ServiceInterface defines the contract for the request service.
type ServiceInterface interface {
	CreateRequest(ctx context.Context, customerID string, req models.CreateRequestRequest) (*models.ServiceRequest, error)
	GetRequest(ctx context.Context, requestID, userID, role string) (*models.ServiceRequest, error)
	GetRequestStatus(ctx context.Context, requestID, userID string) (string, error)
	ListUserRequests(ctx context.Context, userID, role string, page, limit int) ([]*models.ServiceRequest, int, error)
	Transition(ctx context.Context, requestID, actorID, role string, req models.UpdateStatusRequest) (*models.ServiceRequest, error)
	RateRequest(ctx context.Context, requestID, customerID string, req models.RatingRequest) (*models.ServiceRequest, error)
}

// Service implements the status transition engine on top of the request store.
type Service struct {
	repo      RepositoryInterface
	geo       GeoProviderInterface
	tracking  TrackingRegistryInterface
	chat      ChatLogInterface
	publisher events.PublisherInterface
	feed      LiveFeedInterface
	notifier  NotifierInterface
	users     UserDirectoryInterface
	providers ProviderDirectoryInterface
	payments  PaymentServiceInterface
}

// NewService creates a new request service. tracking, chat, publisher, feed,
// notifier, users and providers are best-effort side channels; any of them
// may be nil in tests.
func NewService(
	repo RepositoryInterface,
	geo GeoProviderInterface,
	tracking TrackingRegistryInterface,
	chat ChatLogInterface,
	publisher events.PublisherInterface,
	feed LiveFeedInterface,
	notifier NotifierInterface,
	users UserDirectoryInterface,
	providers ProviderDirectoryInterface,
	payments PaymentServiceInterface,
) *Service {
	return &Service{
		repo:      repo,
		geo:       geo,
		tracking:  tracking,
		chat:      chat,
		publisher: publisher,
		feed:      feed,
		notifier:  notifier,
		users:     users,
		providers: providers,
		payments:  payments,
	}
}

// CreateRequest posts a new service request for a customer.
func (s *Service) CreateRequest(ctx context.Context, customerID string, req models.CreateRequestRequest) (*models.ServiceRequest, error) {
	request, err := s.repo.Create(ctx, customerID, req)
	if err != nil {
		return nil, fmt.Errorf("service.CreateRequest: %w", err)
	}
	return request, nil
}

// GetRequest retrieves a single request, restricted to its customer and its
// assigned provider.
func (s *Service) GetRequest(ctx context.Context, requestID, userID, role string) (*models.ServiceRequest, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("service.GetRequest: %w", err)
	}

	// Return NotFound rather than Forbidden to avoid leaking request ids.
	if !canView(request, userID) {
		return nil, models.ErrNotFound
	}
	return request, nil
}

func canView(r *models.ServiceRequest, userID string) bool {
	if r.CustomerID == userID {
		return true
	}
	return r.ProviderID != nil && *r.ProviderID == userID
}

// GetRequestStatus returns just the status of a request, with the same
// visibility rule as GetRequest.
func (s *Service) GetRequestStatus(ctx context.Context, requestID, userID string) (string, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("service.GetRequestStatus: %w", err)
	}
	if !canView(request, userID) {
		return "", models.ErrNotFound
	}
	return request.Status, nil
}

// ListUserRequests retrieves the caller's requests according to their active
// role: customers see what they posted, providers see what they accepted.
func (s *Service) ListUserRequests(ctx context.Context, userID, role string, page, limit int) ([]*models.ServiceRequest, int, error) {
	if userID == "" {
		return nil, 0, models.ErrUnauthenticated
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20 // Default/max limit
	}

	var (
		out   []*models.ServiceRequest
		total int
		err   error
	)
	if role == models.RoleProvider {
		out, total, err = s.repo.ListByProviderID(ctx, userID, page, limit)
	} else {
		out, total, err = s.repo.ListByCustomerID(ctx, userID, page, limit)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("service.ListUserRequests: %w", err)
	}
	return out, total, nil
}

// Transition applies a status change to a request. The transition table is
// the single gatekeeper; side-effect fields are derived here and nowhere
// else. Conflicting concurrent transitions lose the version check and get
// models.ErrConflict rather than silently overwriting.
func (s *Service) Transition(ctx context.Context, requestID, actorID, role string, req models.UpdateStatusRequest) (*models.ServiceRequest, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("service.Transition: %w", err)
	}

	if err := checkActor(request, actorID, role, req.Status); err != nil {
		return nil, err
	}
	if !models.CanTransition(request.Status, req.Status) {
		return nil, models.ErrInvalidTransition
	}

	from := request.Status
	now := time.Now()
	s.applyTransition(request, req, actorID, now)

	if err := s.repo.UpdateTransition(ctx, request); err != nil {
		return nil, fmt.Errorf("service.Transition: %w", err)
	}

	s.afterTransition(ctx, request, from, actorID, role)
	return request, nil
}

// checkActor enforces who may perform each transition: providers drive the
// job forward, customers cancel.
func checkActor(r *models.ServiceRequest, actorID, role, to string) error {
	switch to {
	case models.StatusAccepted:
		if role != models.RoleProvider {
			return models.ErrForbidden
		}
		// A preferred provider, once named, is the only one who may accept.
		if r.ProviderID != nil && *r.ProviderID != actorID {
			return models.ErrForbidden
		}
	case models.StatusEnRoute, models.StatusCompleted:
		if role != models.RoleProvider || r.ProviderID == nil || *r.ProviderID != actorID {
			return models.ErrForbidden
		}
	case models.StatusCancelled:
		if r.CustomerID != actorID {
			return models.ErrForbidden
		}
	default:
		return models.ErrInvalidTransition
	}
	return nil
}

// applyTransition stamps the timestamp for the target status and derives its
// side-effect fields. Eta and ProviderLocation are populated exactly while
// en_route and cleared on every other status.
func (s *Service) applyTransition(r *models.ServiceRequest, req models.UpdateStatusRequest, actorID string, now time.Time) {
	r.Status = req.Status
	switch req.Status {
	case models.StatusAccepted:
		r.AcceptedAt = &now
		if r.ProviderID == nil {
			r.ProviderID = &actorID
		}
		r.Eta = nil
		r.ProviderLocation = nil
	case models.StatusEnRoute:
		r.EnRouteAt = &now
		eta := s.geo.EstimateEta()
		loc := s.geo.ProviderPosition(r.Location)
		r.Eta = &eta
		r.ProviderLocation = &loc
	case models.StatusCompleted:
		r.CompletedAt = &now
		r.Eta = nil
		r.ProviderLocation = nil
		if req.FinalPrice != nil {
			r.FinalPrice = req.FinalPrice
		}
	case models.StatusCancelled:
		r.Eta = nil
		r.ProviderLocation = nil
	}
}

// afterTransition fires the side channels: tracking deactivation, the status
// chat message, the event bus and the customer email. None of these may fail
// the transition itself; the store is already updated.
func (s *Service) afterTransition(ctx context.Context, r *models.ServiceRequest, from, actorID, role string) {
	if s.tracking != nil && (r.Status == models.StatusCompleted || r.Status == models.StatusCancelled) {
		if err := s.tracking.Deactivate(ctx, r.ID); err != nil {
			log.Printf("service.Transition: deactivate tracking for %s: %v", r.ID, err)
		}
	}

	if s.chat != nil {
		text := statusMessageText(r)
		if err := s.chat.AppendStatusMessage(ctx, r.ID, actorID, role, text); err != nil {
			log.Printf("service.Transition: append status message for %s: %v", r.ID, err)
		}
	}

	if s.publisher != nil {
		ev := events.StatusChangedEvent{
			RequestID:  r.ID,
			CustomerID: r.CustomerID,
			From:       from,
			To:         r.Status,
			OccurredAt: time.Now(),
		}
		if r.ProviderID != nil {
			ev.ProviderID = *r.ProviderID
		}
		if err := s.publisher.PublishStatusChanged(ctx, ev); err != nil {
			log.Printf("service.Transition: publish event for %s: %v", r.ID, err)
		}
	}

	if s.feed != nil {
		s.feed.Publish(ws.Event{Kind: "status_changed", RequestID: r.ID, Payload: r})
	}

	if s.notifier != nil && s.users != nil {
		s.notifyCustomer(ctx, r)
	}
}

func statusMessageText(r *models.ServiceRequest) string {
	switch r.Status {
	case models.StatusAccepted:
		return "Your request has been accepted."
	case models.StatusEnRoute:
		if r.Eta != nil {
			return fmt.Sprintf("Provider is on the way, arriving in about %d minutes.", *r.Eta)
		}
		return "Provider is on the way."
	case models.StatusCompleted:
		return "The job has been marked as complete."
	case models.StatusCancelled:
		return "This request was cancelled."
	default:
		return "Request status changed to " + r.Status + "."
	}
}

func (s *Service) notifyCustomer(ctx context.Context, r *models.ServiceRequest) {
	var subject string
	switch r.Status {
	case models.StatusAccepted:
		subject = "A provider accepted your request"
	case models.StatusCompleted:
		subject = "Your service request is complete"
	default:
		return
	}

	email, err := s.users.GetEmail(ctx, r.CustomerID)
	if err != nil {
		log.Printf("service.notifyCustomer: resolve email for %s: %v", r.CustomerID, err)
		return
	}
	body := fmt.Sprintf("Request %q is now %s.", r.Service, r.Status)
	if err := s.notifier.Send(ctx, email, subject, body); err != nil {
		log.Printf("service.notifyCustomer: send to %s: %v", email, err)
	}
}

// RateRequest records feedback on a completed request, captures card payment
// and rolls the score into the provider's aggregate.
func (s *Service) RateRequest(ctx context.Context, requestID, customerID string, req models.RatingRequest) (*models.ServiceRequest, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("service.RateRequest: %w", err)
	}
	if request.CustomerID != customerID {
		return nil, models.ErrNotFound
	}
	if request.Status == models.StatusRated {
		return nil, models.ErrAlreadyRated
	}
	if !models.CanTransition(request.Status, models.StatusRated) {
		return nil, models.ErrInvalidTransition
	}

	// Charge before recording: a failed card payment must leave the request
	// completed and ratable again.
	if req.PaymentMethod == "card" && s.payments != nil && request.FinalPrice != nil {
		if _, err := s.payments.ProcessPayment(ctx, customerID, *request.FinalPrice, req.PaymentMethodID); err != nil {
			return nil, fmt.Errorf("payment processing failed: %w", err)
		}
	}

	from := request.Status
	request.Status = models.StatusRated
	request.Rating = &req.Rating
	request.PaymentMethod = &req.PaymentMethod
	if req.Review != "" {
		review := req.Review
		request.Review = &review
	}

	if err := s.repo.UpdateTransition(ctx, request); err != nil {
		// A charge may have gone through while the record write failed.
		log.Printf("CRITICAL: payment may be captured for request %s but rating was not recorded: %v", request.ID, err)
		return nil, fmt.Errorf("service.RateRequest: %w", err)
	}

	if s.providers != nil && request.ProviderID != nil {
		if err := s.providers.RecordRating(ctx, *request.ProviderID, req.Rating); err != nil {
			log.Printf("service.RateRequest: update provider aggregate for %s: %v", *request.ProviderID, err)
		}
	}

	s.afterTransition(ctx, request, from, customerID, models.RoleCustomer)
	return request, nil
}
