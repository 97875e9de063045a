package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Client is one connected websocket session. A client subscribes to a single
// request id at a time; the connection handler owns the Send channel.
type Client struct {
	ID        string
	RequestID string
	Send      chan []byte
}

// Hub fans JSON payloads out to clients subscribed to a request.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// Event is the envelope pushed to subscribers.
type Event struct {
	Kind      string      `json:"kind"` // chat_message, status_changed, tracking_update
	RequestID string      `json:"request_id"`
	Payload   interface{} `json:"payload"`
}

// SubscribeMessage is what clients send to pick a request.
type SubscribeMessage struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id"`
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) UpdateSubscription(client *Client, requestID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.RequestID = requestID
}

// Publish sends the event to every client watching its request. Slow clients
// are skipped rather than blocking the caller.
func (h *Hub) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ws: marshal event: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.RequestID != ev.RequestID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("ws: drop message for client %s", client.ID)
		}
	}
}

// ParseSubscribe validates an inbound control frame.
func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
		return SubscribeMessage{}, false
	}
	return msg, true
}
