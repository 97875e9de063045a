package chat

import (
	"context"
	"fmt"

	"boadwuma-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the chat repository.
type RepositoryInterface interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByRequestID(ctx context.Context, requestID string) ([]*models.ChatMessage, error)
	AppendStatusMessage(ctx context.Context, requestID, senderID, senderType, text string) error
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new chat repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// Create appends a message to the request's log and fills in the generated
// id and timestamp.
func (r *Repository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (request_id, sender_id, sender_type, message, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		msg.RequestID, msg.SenderID, msg.SenderType, msg.Message, msg.Type,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository.Create: %w", err)
	}
	return nil
}

// ListByRequestID returns the full message log in insertion order. The seq
// column breaks ties when two messages land in the same clock tick.
func (r *Repository) ListByRequestID(ctx context.Context, requestID string) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, request_id, sender_id, sender_type, message, type, created_at
		FROM chat_messages
		WHERE request_id = $1
		ORDER BY seq`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByRequestID: %w", err)
	}
	defer rows.Close()

	var out []*models.ChatMessage
	for rows.Next() {
		msg := &models.ChatMessage{}
		if err := rows.Scan(
			&msg.ID, &msg.RequestID, &msg.SenderID, &msg.SenderType,
			&msg.Message, &msg.Type, &msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("repository.ListByRequestID.Scan: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListByRequestID.rows: %w", err)
	}
	return out, nil
}

// AppendStatusMessage is the transition engine's hook for dropping a status
// line into the conversation.
func (r *Repository) AppendStatusMessage(ctx context.Context, requestID, senderID, senderType, text string) error {
	msg := &models.ChatMessage{
		RequestID:  requestID,
		SenderID:   senderID,
		SenderType: senderType,
		Message:    text,
		Type:       models.MessageTypeStatus,
	}
	return r.Create(ctx, msg)
}
