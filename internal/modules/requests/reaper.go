package requests

import (
	"context"
	"errors"
	"log"
	"time"

	"boadwuma-backend/internal/models"
)

// Reaper cancels requests that sat in pending longer than the configured TTL,
// so abandoned posts don't linger forever waiting for a provider.
type Reaper struct {
	repo     RepositoryInterface
	svc      *Service
	ttl      time.Duration
	interval time.Duration
}

func NewReaper(repo RepositoryInterface, svc *Service, ttl time.Duration) *Reaper {
	return &Reaper{
		repo:     repo,
		svc:      svc,
		ttl:      ttl,
		interval: 10 * time.Minute,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	stale, err := r.repo.ListStalePending(ctx, time.Now().Add(-r.ttl))
	if err != nil {
		log.Printf("reaper: list stale pending: %v", err)
		return
	}
	for _, req := range stale {
		// Cancel as the owning customer so the actor check passes; losing a
		// version race just means someone acted on the request first.
		_, err := r.svc.Transition(ctx, req.ID, req.CustomerID, models.RoleCustomer, models.UpdateStatusRequest{Status: models.StatusCancelled})
		if err != nil && !errors.Is(err, models.ErrConflict) {
			log.Printf("reaper: cancel request %s: %v", req.ID, err)
			continue
		}
		if err == nil {
			log.Printf("reaper: cancelled stale pending request %s", req.ID)
		}
	}
}
