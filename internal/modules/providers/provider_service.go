package providers

import (
	"context"
	"fmt"

	"boadwuma-backend/internal/models"
)

// ServiceInterface defines the contract for the provider directory service.
type ServiceInterface interface {
	GetProvider(ctx context.Context, providerID string) (*models.Provider, error)
	ListProviders(ctx context.Context, filter models.ProviderFilter) ([]*models.Provider, int, error)
	TopRated(ctx context.Context, limit int) ([]*models.Provider, error)
	RecordRating(ctx context.Context, providerUserID string, rating int) error
	SetAvailability(ctx context.Context, providerUserID, availability string) error
}

// Service implements the provider directory.
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new provider service.
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// GetProvider retrieves a single listing.
func (s *Service) GetProvider(ctx context.Context, providerID string) (*models.Provider, error) {
	p, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("service.GetProvider: %w", err)
	}
	return p, nil
}

// ListProviders retrieves the directory with category/text filtering.
func (s *Service) ListProviders(ctx context.Context, filter models.ProviderFilter) ([]*models.Provider, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20 // Default/max limit
	}
	out, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ListProviders: %w", err)
	}
	return out, total, nil
}

// TopRated returns the highest-rated available providers.
func (s *Service) TopRated(ctx context.Context, limit int) ([]*models.Provider, error) {
	if limit < 1 || limit > 20 {
		limit = 5
	}
	out, err := s.repo.ListTopRated(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service.TopRated: %w", err)
	}
	return out, nil
}

// RecordRating folds a new score into the provider's aggregate. Called by
// the request engine when a completed request is rated.
func (s *Service) RecordRating(ctx context.Context, providerUserID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("service.RecordRating: rating %d out of range", rating)
	}
	return s.repo.RecordRating(ctx, providerUserID, rating)
}

// SetAvailability updates the caller's own availability flag.
func (s *Service) SetAvailability(ctx context.Context, providerUserID, availability string) error {
	switch availability {
	case models.AvailabilityAvailable, models.AvailabilityBusy, models.AvailabilityOffline:
	default:
		return fmt.Errorf("service.SetAvailability: invalid availability %q", availability)
	}
	return s.repo.UpdateAvailability(ctx, providerUserID, availability)
}
