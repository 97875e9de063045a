package users

import (
	"context"
	"errors"
	"fmt"

	"boadwuma-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the user repository.
type RepositoryInterface interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
	UpdateRole(ctx context.Context, userID, role string) error
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new user repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const userColumns = `
	id, name, email, phone, role, avatar, location_lat, location_lng, location_name,
	password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var lat, lng *float64
	var name *string
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Avatar,
		&lat, &lng, &name,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if lat != nil && lng != nil {
		loc := models.Location{Lat: *lat, Lng: *lng}
		if name != nil {
			loc.Name = *name
		}
		u.Location = &loc
	}
	return &u, nil
}

// Create inserts a new account and fills in the generated id and timestamps.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (name, email, phone, role, avatar, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		u.Name, u.Email, u.Phone, u.Role, u.Avatar, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("repository.Create: %w", err)
	}
	return nil
}

// FindByID retrieves a single user by id.
func (r *Repository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return u, nil
}

// FindByEmail retrieves a single user by email, for login.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByEmail: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the provided fields and returns the updated record.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	var lat, lng *float64
	var locName *string
	if req.Location != nil {
		lat = &req.Location.Lat
		lng = &req.Location.Lng
		locName = &req.Location.Name
	}

	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    phone = COALESCE($3, phone),
		    avatar = COALESCE($4, avatar),
		    location_lat = COALESCE($5, location_lat),
		    location_lng = COALESCE($6, location_lng),
		    location_name = COALESCE($7, location_name),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, query, userID, req.Name, req.Phone, req.Avatar, lat, lng, locName))
	if err != nil {
		return nil, fmt.Errorf("repository.UpdateProfile: %w", err)
	}
	return u, nil
}

// UpdateRole flips the account's active role.
func (r *Repository) UpdateRole(ctx context.Context, userID, role string) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, userID, role)
	if err != nil {
		return fmt.Errorf("repository.UpdateRole: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
