package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boadwuma-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the request repository.
type RepositoryInterface interface {
	Create(ctx context.Context, customerID string, req models.CreateRequestRequest) (*models.ServiceRequest, error)
	FindByID(ctx context.Context, requestID string) (*models.ServiceRequest, error)
	ListByCustomerID(ctx context.Context, customerID string, page, limit int) ([]*models.ServiceRequest, int, error)
	ListByProviderID(ctx context.Context, providerID string, page, limit int) ([]*models.ServiceRequest, int, error)
	UpdateTransition(ctx context.Context, r *models.ServiceRequest) error
	ListStalePending(ctx context.Context, olderThan time.Time) ([]*models.ServiceRequest, error)
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new request repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const requestColumns = `
	id, customer_id, provider_id, service, description, status,
	location_lat, location_lng, location_name,
	eta, provider_lat, provider_lng,
	final_price, rating, review, payment_method,
	created_at, accepted_at, en_route_at, completed_at, updated_at, version`

// Create inserts a new request. Every request starts pending with all
// later-status fields null.
func (r *Repository) Create(ctx context.Context, customerID string, req models.CreateRequestRequest) (*models.ServiceRequest, error) {
	query := `
		INSERT INTO requests (customer_id, provider_id, service, description, status, location_lat, location_lng, location_name)
		VALUES ($1, NULLIF($2, ''), $3, $4, 'pending', $5, $6, $7)
		RETURNING` + requestColumns

	row := r.db.QueryRow(ctx, query,
		customerID, req.ProviderID, req.Service, req.Description,
		req.Location.Lat, req.Location.Lng, req.Location.Name,
	)
	request, err := scanRequest(row)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return request, nil
}

// scanRequest is a helper function to scan a row into a ServiceRequest model.
func scanRequest(row pgx.Row) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	var providerLat, providerLng *float64
	err := row.Scan(
		&req.ID,
		&req.CustomerID,
		&req.ProviderID,
		&req.Service,
		&req.Description,
		&req.Status,
		&req.Location.Lat,
		&req.Location.Lng,
		&req.Location.Name,
		&req.Eta,
		&providerLat,
		&providerLng,
		&req.FinalPrice,
		&req.Rating,
		&req.Review,
		&req.PaymentMethod,
		&req.CreatedAt,
		&req.AcceptedAt,
		&req.EnRouteAt,
		&req.CompletedAt,
		&req.UpdatedAt,
		&req.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}

	if providerLat != nil && providerLng != nil {
		req.ProviderLocation = &models.Location{Lat: *providerLat, Lng: *providerLng}
	}
	return &req, nil
}

// FindByID retrieves a single request by its ID.
func (r *Repository) FindByID(ctx context.Context, requestID string) (*models.ServiceRequest, error) {
	query := `SELECT` + requestColumns + ` FROM requests WHERE id = $1`
	request, err := scanRequest(r.db.QueryRow(ctx, query, requestID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return request, nil
}

// ListByCustomerID retrieves a customer's requests, newest first.
func (r *Repository) ListByCustomerID(ctx context.Context, customerID string, page, limit int) ([]*models.ServiceRequest, int, error) {
	return r.list(ctx, "customer_id", customerID, page, limit)
}

// ListByProviderID retrieves a provider's requests, newest first.
func (r *Repository) ListByProviderID(ctx context.Context, providerID string, page, limit int) ([]*models.ServiceRequest, int, error) {
	return r.list(ctx, "provider_id", providerID, page, limit)
}

func (r *Repository) list(ctx context.Context, column, id string, page, limit int) ([]*models.ServiceRequest, int, error) {
	offset := (page - 1) * limit
	query := `SELECT` + requestColumns + `
		FROM requests
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, id, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.list.Query: %w", err)
	}
	defer rows.Close()

	var out []*models.ServiceRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.list.scanRequest: %w", err)
		}
		out = append(out, request)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.list.rows: %w", err)
	}

	var total int
	err = r.db.QueryRow(ctx, "SELECT COUNT(*) FROM requests WHERE "+column+" = $1", id).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.list.Count: %w", err)
	}

	return out, total, nil
}

// UpdateTransition writes the outcome of a status transition. The WHERE
// clause carries the version the caller loaded, so two concurrent transitions
// cannot both apply; the loser gets models.ErrConflict.
func (r *Repository) UpdateTransition(ctx context.Context, req *models.ServiceRequest) error {
	query := `
		UPDATE requests
		SET status = $2,
		    provider_id = $3,
		    eta = $4,
		    provider_lat = $5,
		    provider_lng = $6,
		    final_price = $7,
		    rating = $8,
		    review = $9,
		    payment_method = $10,
		    accepted_at = $11,
		    en_route_at = $12,
		    completed_at = $13,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $14`

	var providerLat, providerLng *float64
	if req.ProviderLocation != nil {
		providerLat = &req.ProviderLocation.Lat
		providerLng = &req.ProviderLocation.Lng
	}

	cmdTag, err := r.db.Exec(ctx, query,
		req.ID, req.Status, req.ProviderID,
		req.Eta, providerLat, providerLng,
		req.FinalPrice, req.Rating, req.Review, req.PaymentMethod,
		req.AcceptedAt, req.EnRouteAt, req.CompletedAt,
		req.Version,
	)
	if err != nil {
		return fmt.Errorf("repository.UpdateTransition: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Either the row is gone or someone else won the version race.
		var exists bool
		if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM requests WHERE id = $1)", req.ID).Scan(&exists); err != nil {
			return fmt.Errorf("repository.UpdateTransition: %w", err)
		}
		if exists {
			return models.ErrConflict
		}
		return models.ErrNotFound
	}
	req.Version++

	return nil
}

// ListStalePending returns pending requests created before the cutoff, for
// the timeout reaper.
func (r *Repository) ListStalePending(ctx context.Context, olderThan time.Time) ([]*models.ServiceRequest, error) {
	query := `SELECT` + requestColumns + `
		FROM requests
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("repository.ListStalePending: %w", err)
	}
	defer rows.Close()

	var out []*models.ServiceRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListStalePending.scanRequest: %w", err)
		}
		out = append(out, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListStalePending.rows: %w", err)
	}
	return out, nil
}
