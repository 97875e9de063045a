package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const exchangeName = "request_events"

// StatusChangedEvent is published whenever a service request changes status.
type StatusChangedEvent struct {
	RequestID  string    `json:"request_id"`
	CustomerID string    `json:"customer_id"`
	ProviderID string    `json:"provider_id,omitempty"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PublisherInterface is what the request service depends on.
type PublisherInterface interface {
	PublishStatusChanged(ctx context.Context, ev StatusChangedEvent) error
}

// Publisher pushes events onto a RabbitMQ topic exchange.
type Publisher struct {
	conn *amqp091.Connection
}

// NewPublisher connects to RabbitMQ and declares the exchange.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchangeName, err)
	}

	log.Println("Connected to RabbitMQ")
	return &Publisher{conn: conn}, nil
}

// PublishStatusChanged emits a request.status.<to> event. Routing keys let
// consumers bind to a single status (e.g. request.status.completed) or all.
func (p *Publisher) PublishStatusChanged(ctx context.Context, ev StatusChangedEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("events.PublishStatusChanged: open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events.PublishStatusChanged: marshal: %w", err)
	}

	routingKey := "request.status." + ev.To
	err = ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.OccurredAt,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("events.PublishStatusChanged: publish: %w", err)
	}
	return nil
}

// Close tears down the underlying connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
