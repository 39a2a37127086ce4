package handler

import (
	"fmt"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SSEHandler handles SSE connections
type SSEHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub, heartbeat: 30 * time.Second}
}

// Stream handles the SSE endpoint
// GET /api/v1/events?submission_id=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	clientID := uuid.New().String()

	client := &sse.Client{
		ID:           clientID,
		SubmissionID: c.Query("submission_id"),
		Events:       make(chan sse.Event, 64),
	}

	h.hub.Register(client)

	// Set SSE headers
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	// Send initial connection event
	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
