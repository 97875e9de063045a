package chat

import (
	"context"
	"fmt"

	"boadwuma-backend/internal/models"
	"boadwuma-backend/internal/platform/ws"
)

// RequestAccessInterface is the slice of the request service used to check
// that the caller may see a conversation.
type RequestAccessInterface interface {
	GetRequest(ctx context.Context, requestID, userID, role string) (*models.ServiceRequest, error)
}

// ServiceInterface defines the contract for the chat service.
type ServiceInterface interface {
	SendMessage(ctx context.Context, requestID, senderID, role string, req models.SendMessageRequest) (*models.ChatMessage, error)
	GetMessages(ctx context.Context, requestID, userID, role string) ([]*models.ChatMessage, error)
}

// Service implements the per-request chat log. Messages may reference a
// request in any status; what actions are offered per status is a client
// concern, not a message-log one.
type Service struct {
	repo     RepositoryInterface
	requests RequestAccessInterface
	hub      *ws.Hub // optional, nil in tests
}

// NewService creates a new chat service.
func NewService(repo RepositoryInterface, requests RequestAccessInterface, hub *ws.Hub) *Service {
	return &Service{repo: repo, requests: requests, hub: hub}
}

// SendMessage appends a text message to the request's log and pushes it to
// websocket subscribers.
func (s *Service) SendMessage(ctx context.Context, requestID, senderID, role string, req models.SendMessageRequest) (*models.ChatMessage, error) {
	// Participants only; GetRequest already hides foreign requests.
	if _, err := s.requests.GetRequest(ctx, requestID, senderID, role); err != nil {
		return nil, fmt.Errorf("service.SendMessage: %w", err)
	}

	msg := &models.ChatMessage{
		RequestID:  requestID,
		SenderID:   senderID,
		SenderType: role,
		Message:    req.Message,
		Type:       models.MessageTypeText,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("service.SendMessage: %w", err)
	}

	if s.hub != nil {
		s.hub.Publish(ws.Event{Kind: "chat_message", RequestID: requestID, Payload: msg})
	}
	return msg, nil
}

// GetMessages returns the full ordered log for a request.
func (s *Service) GetMessages(ctx context.Context, requestID, userID, role string) ([]*models.ChatMessage, error) {
	if _, err := s.requests.GetRequest(ctx, requestID, userID, role); err != nil {
		return nil, fmt.Errorf("service.GetMessages: %w", err)
	}

	msgs, err := s.repo.ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("service.GetMessages: %w", err)
	}
	return msgs, nil
}
