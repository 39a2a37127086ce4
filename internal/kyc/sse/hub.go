package sse

import (
	"sync"

	"go.uber.org/zap"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType    string `json:"event"`
	SubmissionID string `json:"submission_id"`
	Data         string `json:"data"`
}

// Client represents a connected SSE client. An empty SubmissionID subscribes to every submission.
type Client struct {
	ID           string
	SubmissionID string
	Events       chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("SSE client registered",
		zap.String("client_id", client.ID),
		zap.String("submission_id", client.SubmissionID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("SSE client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Broadcast sends an event to every client watching its submission
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.SubmissionID != "" && client.SubmissionID != event.SubmissionID {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("SSE client buffer full, skipping event",
				zap.String("client_id", client.ID),
				zap.String("event", event.EventType),
			)
		}
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
