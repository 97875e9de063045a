package providers

import (
	"context"
	"errors"
	"fmt"

	"boadwuma-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the provider repository.
type RepositoryInterface interface {
	FindByID(ctx context.Context, providerID string) (*models.Provider, error)
	List(ctx context.Context, filter models.ProviderFilter) ([]*models.Provider, int, error)
	ListTopRated(ctx context.Context, limit int) ([]*models.Provider, error)
	RecordRating(ctx context.Context, providerUserID string, rating int) error
	UpdateAvailability(ctx context.Context, providerUserID, availability string) error
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new provider repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const providerColumns = `
	id, user_id, name, avatar, phone, category, services, price_range,
	location_lat, location_lng, location_name,
	experience, description, availability, verified,
	rating, review_count, completed_jobs, created_at, updated_at`

func scanProvider(row pgx.Row) (*models.Provider, error) {
	var p models.Provider
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Avatar, &p.Phone, &p.Category,
		&p.Services, &p.PriceRange,
		&p.Location.Lat, &p.Location.Lng, &p.Location.Name,
		&p.Experience, &p.Description, &p.Availability, &p.Verified,
		&p.Rating, &p.ReviewCount, &p.CompletedJobs, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan provider: %w", err)
	}
	return &p, nil
}

// FindByID retrieves a single provider listing.
func (r *Repository) FindByID(ctx context.Context, providerID string) (*models.Provider, error) {
	query := `SELECT` + providerColumns + ` FROM providers WHERE id = $1`
	p, err := scanProvider(r.db.QueryRow(ctx, query, providerID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return p, nil
}

// List retrieves providers matching the filter, best rated first.
func (r *Repository) List(ctx context.Context, filter models.ProviderFilter) ([]*models.Provider, int, error) {
	offset := (filter.Page - 1) * filter.Limit
	where := `WHERE ($1 = '' OR category = $1)
	      AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%'
	           OR EXISTS (SELECT 1 FROM unnest(services) s WHERE s ILIKE '%' || $2 || '%'))`

	query := `SELECT` + providerColumns + `
		FROM providers ` + where + `
		ORDER BY rating DESC, review_count DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query, filter.Category, filter.Query, filter.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List.Query: %w", err)
	}
	defer rows.Close()

	var out []*models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.List.scanProvider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.List.rows: %w", err)
	}

	var total int
	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM providers `+where, filter.Category, filter.Query).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List.Count: %w", err)
	}
	return out, total, nil
}

// ListTopRated returns the best-rated providers for the home screen rail.
func (r *Repository) ListTopRated(ctx context.Context, limit int) ([]*models.Provider, error) {
	query := `SELECT` + providerColumns + `
		FROM providers
		WHERE availability <> 'offline'
		ORDER BY rating DESC, review_count DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("repository.ListTopRated: %w", err)
	}
	defer rows.Close()

	var out []*models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListTopRated.scanProvider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListTopRated.rows: %w", err)
	}
	return out, nil
}

// RecordRating folds one more score into the provider's running average and
// bumps the completed-jobs counter.
func (r *Repository) RecordRating(ctx context.Context, providerUserID string, rating int) error {
	query := `
		UPDATE providers
		SET rating = ROUND(((rating * review_count) + $2) / (review_count + 1)::numeric, 2),
		    review_count = review_count + 1,
		    completed_jobs = completed_jobs + 1,
		    updated_at = NOW()
		WHERE user_id = $1`

	cmdTag, err := r.db.Exec(ctx, query, providerUserID, rating)
	if err != nil {
		return fmt.Errorf("repository.RecordRating: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateAvailability sets a provider's availability flag.
func (r *Repository) UpdateAvailability(ctx context.Context, providerUserID, availability string) error {
	query := `UPDATE providers SET availability = $2, updated_at = NOW() WHERE user_id = $1`
	cmdTag, err := r.db.Exec(ctx, query, providerUserID, availability)
	if err != nil {
		return fmt.Errorf("repository.UpdateAvailability: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
