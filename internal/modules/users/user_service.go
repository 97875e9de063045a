package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boadwuma-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims are the JWT claims carried in every session token. Role is the
// active role, which switch-role re-issues.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

const tokenLifetime = 72 * time.Hour

// ServiceInterface defines the contract for the user service.
type ServiceInterface interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
	SwitchRole(ctx context.Context, userID string) (*models.AuthResponse, error)
	GetEmail(ctx context.Context, userID string) (string, error)
}

// Service implements account management and session issuance.
type Service struct {
	repo      RepositoryInterface
	jwtSecret []byte
}

// NewService creates a new user service.
func NewService(repo RepositoryInterface, jwtSecret string) *Service {
	return &Service{repo: repo, jwtSecret: []byte(jwtSecret)}
}

// Register creates an account and returns a fresh session.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Register: hash password: %w", err)
	}

	u := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return nil, models.ErrEmailTaken
		}
		return nil, fmt.Errorf("service.Register: %w", err)
	}

	return s.issueSession(u)
}

// Login verifies credentials and returns a fresh session.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return s.issueSession(u)
}

func (s *Service) issueSession(u *models.User) (*models.AuthResponse, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("service.issueSession: sign token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: u}, nil
}

// GetProfile returns the caller's account.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.GetProfile: %w", err)
	}
	return u, nil
}

// UpdateProfile applies partial profile changes.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	u, err := s.repo.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateProfile: %w", err)
	}
	return u, nil
}

// SwitchRole toggles the caller between customer and provider and re-issues
// the session token with the new role claim.
func (s *Service) SwitchRole(ctx context.Context, userID string) (*models.AuthResponse, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.SwitchRole: %w", err)
	}

	next := models.RoleProvider
	if u.Role == models.RoleProvider {
		next = models.RoleCustomer
	}
	if err := s.repo.UpdateRole(ctx, userID, next); err != nil {
		return nil, fmt.Errorf("service.SwitchRole: %w", err)
	}
	u.Role = next

	return s.issueSession(u)
}

// GetEmail resolves a user's email for notifications.
func (s *Service) GetEmail(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("service.GetEmail: %w", err)
	}
	return u.Email, nil
}
