package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boadwuma-backend/internal/models"
	"boadwuma-backend/internal/platform/ws"
)

// RequestEngineInterface is the slice of the request service the registry
// needs: loading a request and moving it to en_route.
type RequestEngineInterface interface {
	GetRequest(ctx context.Context, requestID, userID, role string) (*models.ServiceRequest, error)
	Transition(ctx context.Context, requestID, actorID, role string, req models.UpdateStatusRequest) (*models.ServiceRequest, error)
}

// ServiceInterface defines the contract for the tracking service.
type ServiceInterface interface {
	StartTracking(ctx context.Context, requestID, actorID, role string) (*models.TrackingEntry, error)
	StopTracking(ctx context.Context, requestID, actorID, role string) error
	GetTrackingData(ctx context.Context, requestID, actorID, role string) (*models.TrackingEntry, error)
	IsRequestTracked(ctx context.Context, requestID string) (bool, error)
}

// service implements the tracking registry on top of the store and the
// transition engine.
type service struct {
	store  StoreInterface
	engine RequestEngineInterface
	hub    *ws.Hub // optional, nil in tests
}

// NewService creates a new tracking service.
func NewService(store StoreInterface, engine RequestEngineInterface, hub *ws.Hub) ServiceInterface {
	return &service{store: store, engine: engine, hub: hub}
}

// StartTracking begins live tracking for an accepted request. The request
// must currently be accepted; the engine moves it to en_route and derives
// the ETA and provider position, which seed the registry entry. Nothing is
// written when the precondition fails.
func (s *service) StartTracking(ctx context.Context, requestID, actorID, role string) (*models.TrackingEntry, error) {
	request, err := s.engine.GetRequest(ctx, requestID, actorID, role)
	if err != nil {
		return nil, fmt.Errorf("tracking.StartTracking: %w", err)
	}
	if request.Status != models.StatusAccepted {
		return nil, models.ErrInvalidTransition
	}

	updated, err := s.engine.Transition(ctx, requestID, actorID, role, models.UpdateStatusRequest{Status: models.StatusEnRoute})
	if err != nil {
		return nil, fmt.Errorf("tracking.StartTracking: %w", err)
	}

	entry := &models.TrackingEntry{
		RequestID: requestID,
		IsActive:  true,
		StartTime: time.Now(),
	}
	// The engine populates both while en_route; guard anyway so a partial
	// record never panics here.
	if updated.Eta != nil {
		entry.Eta = *updated.Eta
	}
	if updated.ProviderLocation != nil {
		entry.CurrentLocation = *updated.ProviderLocation
	}

	if err := s.store.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("tracking.StartTracking: %w", err)
	}

	if s.hub != nil {
		s.hub.Publish(ws.Event{Kind: "tracking_update", RequestID: requestID, Payload: entry})
	}
	return entry, nil
}

// StopTracking deactivates the entry. Participants only; safe to call when
// nothing is tracked.
func (s *service) StopTracking(ctx context.Context, requestID, actorID, role string) error {
	// GetRequest already hides foreign requests behind ErrNotFound.
	if _, err := s.engine.GetRequest(ctx, requestID, actorID, role); err != nil {
		return fmt.Errorf("tracking.StopTracking: %w", err)
	}
	if err := s.store.Deactivate(ctx, requestID); err != nil {
		return fmt.Errorf("tracking.StopTracking: %w", err)
	}
	return nil
}

// GetTrackingData returns the entry for a request, active or not. The live
// provider position is visible only to the request's participants.
func (s *service) GetTrackingData(ctx context.Context, requestID, actorID, role string) (*models.TrackingEntry, error) {
	if _, err := s.engine.GetRequest(ctx, requestID, actorID, role); err != nil {
		return nil, fmt.Errorf("tracking.GetTrackingData: %w", err)
	}
	entry, err := s.store.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("tracking.GetTrackingData: %w", err)
	}
	return entry, nil
}

// IsRequestTracked reports whether live tracking is currently active.
func (s *service) IsRequestTracked(ctx context.Context, requestID string) (bool, error) {
	entry, err := s.store.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("tracking.IsRequestTracked: %w", err)
	}
	return entry.IsActive, nil
}
