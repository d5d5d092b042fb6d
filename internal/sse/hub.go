package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

const (
	EventAccountUpdated = "account_updated"
	EventInquiryCreated = "inquiry_created"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// AccountUpdatedEvent mirrors the synchronizer state a dashboard renders.
type AccountUpdatedEvent struct {
	UserID  uuid.UUID       `json:"user_id"`
	Phase   string          `json:"phase"`
	Profile *models.Profile `json:"profile"`
	Error   string          `json:"error,omitempty"`
}

type InquiryCreatedEvent struct {
	InquiryID uuid.UUID `json:"inquiry_id"`
	Name      string    `json:"name"`
	Subject   *string   `json:"subject"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	// Staff clients also receive back-office events.
	Staff bool
	Send  chan []byte
}

type message struct {
	userID uuid.UUID
	staff  bool
	event  Event
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *message
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *message, 256),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.event)
			for _, client := range h.clients {
				if (msg.staff && client.Staff) || (!msg.staff && client.UserID == msg.userID) {
					select {
					case client.Send <- data:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount is the number of open streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) BroadcastAccountUpdate(ev AccountUpdatedEvent) {
	h.broadcast <- &message{
		userID: ev.UserID,
		event:  Event{Type: EventAccountUpdated, Data: ev},
	}
}

func (h *Hub) BroadcastInquiryCreated(inquiry *models.ContactInquiry) {
	h.broadcast <- &message{
		staff: true,
		event: Event{
			Type: EventInquiryCreated,
			Data: InquiryCreatedEvent{
				InquiryID: inquiry.ID,
				Name:      inquiry.Name,
				Subject:   inquiry.Subject,
			},
		},
	}
}
