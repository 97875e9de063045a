package providers

import (
	"context"
	"math"
	"testing"

	"boadwuma-backend/internal/models"
)

// ----------------------------------------------------------------------------
// fakeRepo: in-memory provider directory keeping the same rating-aggregate
// arithmetic as the SQL implementation.
// ----------------------------------------------------------------------------
type fakeRepo struct {
	providers map[string]*models.Provider // keyed by user id
	lastList  models.ProviderFilter
	lastTop   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{providers: make(map[string]*models.Provider)}
}

func (f *fakeRepo) FindByID(ctx context.Context, providerID string) (*models.Provider, error) {
	for _, p := range f.providers {
		if p.ID == providerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, filter models.ProviderFilter) ([]*models.Provider, int, error) {
	f.lastList = filter
	var out []*models.Provider
	for _, p := range f.providers {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListTopRated(ctx context.Context, limit int) ([]*models.Provider, error) {
	f.lastTop = limit
	return nil, nil
}

func (f *fakeRepo) RecordRating(ctx context.Context, providerUserID string, rating int) error {
	p, ok := f.providers[providerUserID]
	if !ok {
		return models.ErrNotFound
	}
	total := p.Rating*float64(p.ReviewCount) + float64(rating)
	p.ReviewCount++
	p.Rating = math.Round(total/float64(p.ReviewCount)*100) / 100
	p.CompletedJobs++
	return nil
}

func (f *fakeRepo) UpdateAvailability(ctx context.Context, providerUserID, availability string) error {
	p, ok := f.providers[providerUserID]
	if !ok {
		return models.ErrNotFound
	}
	p.Availability = availability
	return nil
}

// ----------------------------------------------------------------------------
// Tests
// ----------------------------------------------------------------------------

func TestRecordRatingAggregates(t *testing.T) {
	repo := newFakeRepo()
	repo.providers["u1"] = &models.Provider{ID: "p1", UserID: "u1", Rating: 4.0, ReviewCount: 1}
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.RecordRating(ctx, "u1", 5); err != nil {
		t.Fatalf("RecordRating error: %v", err)
	}
	p := repo.providers["u1"]
	if p.Rating != 4.5 {
		t.Errorf("Rating = %.2f; want 4.50", p.Rating)
	}
	if p.ReviewCount != 2 {
		t.Errorf("ReviewCount = %d; want 2", p.ReviewCount)
	}
	if p.CompletedJobs != 1 {
		t.Errorf("CompletedJobs = %d; want 1", p.CompletedJobs)
	}
}

func TestRecordRatingRejectsOutOfRange(t *testing.T) {
	repo := newFakeRepo()
	repo.providers["u1"] = &models.Provider{ID: "p1", UserID: "u1"}
	svc := NewService(repo)

	for _, rating := range []int{0, 6, -1} {
		if err := svc.RecordRating(context.Background(), "u1", rating); err == nil {
			t.Errorf("RecordRating(%d) did not fail", rating)
		}
	}
	if repo.providers["u1"].ReviewCount != 0 {
		t.Error("out-of-range rating mutated the aggregate")
	}
}

func TestListProvidersClampsPagination(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if _, _, err := svc.ListProviders(ctx, models.ProviderFilter{Page: 0, Limit: 500}); err != nil {
		t.Fatalf("ListProviders error: %v", err)
	}
	if repo.lastList.Page != 1 {
		t.Errorf("Page = %d; want 1", repo.lastList.Page)
	}
	if repo.lastList.Limit != 20 {
		t.Errorf("Limit = %d; want 20", repo.lastList.Limit)
	}
}

func TestTopRatedClampsLimit(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.TopRated(ctx, 1000); err != nil {
		t.Fatalf("TopRated error: %v", err)
	}
	if repo.lastTop != 5 {
		t.Errorf("limit = %d; want 5", repo.lastTop)
	}
}

func TestSetAvailability(t *testing.T) {
	repo := newFakeRepo()
	repo.providers["u1"] = &models.Provider{ID: "p1", UserID: "u1", Availability: models.AvailabilityOffline}
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.SetAvailability(ctx, "u1", models.AvailabilityAvailable); err != nil {
		t.Fatalf("SetAvailability error: %v", err)
	}
	if repo.providers["u1"].Availability != models.AvailabilityAvailable {
		t.Errorf("Availability = %s; want available", repo.providers["u1"].Availability)
	}

	if err := svc.SetAvailability(ctx, "u1", "sometimes"); err == nil {
		t.Error("invalid availability accepted")
	}
}
