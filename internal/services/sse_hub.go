package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SSEHub manages Server-Sent Events connections for real-time message and
// campaign updates. Clients subscribe per user; every event for that user's
// workspace is pushed to all of their open connections.
type SSEHub struct {
	clients map[string]map[chan []byte]bool
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]map[chan []byte]bool),
	}
}

// RegisterClient registers a new SSE client for a user
func (h *SSEHub) RegisterClient(userID string) chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientChan := make(chan []byte, 10) // Buffer size 10

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[chan []byte]bool)
	}
	h.clients[userID][clientChan] = true

	logrus.Infof("SSE client registered for user %s (total clients: %d)", userID, len(h.clients[userID]))
	return clientChan
}

// UnregisterClient unregisters an SSE client
func (h *SSEHub) UnregisterClient(userID string, clientChan chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] != nil {
		delete(h.clients[userID], clientChan)
		close(clientChan)

		// Clean up empty maps
		if len(h.clients[userID]) == 0 {
			delete(h.clients, userID)
		}
	}

	logrus.Infof("SSE client unregistered for user %s (remaining clients: %d)", userID, len(h.clients[userID]))
}

// Broadcast pushes an event to all of the user's connected clients. Slow
// clients are skipped rather than blocking the sender.
func (h *SSEHub) Broadcast(userID, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.clients[userID]
	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("Failed to marshal payload for SSE: %v", err)
		return
	}

	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event, string(data))

	for clientChan := range clients {
		select {
		case clientChan <- []byte(message):
		default:
			// Channel is full, skip this client
			logrus.Warnf("SSE client channel full, skipping user %s", userID)
		}
	}
}

// GetClientCount returns the number of clients for a user
func (h *SSEHub) GetClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, exists := h.clients[userID]; exists {
		return len(clients)
	}
	return 0
}

// SendHeartbeat sends a heartbeat message to keep connections alive
func (h *SSEHub) SendHeartbeat(userID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, exists := h.clients[userID]
	if !exists {
		return
	}

	heartbeat := fmt.Sprintf(": heartbeat %s\n\n", time.Now().Format(time.RFC3339))
	for clientChan := range clients {
		select {
		case clientChan <- []byte(heartbeat):
		default:
			// Skip if channel is full
		}
	}
}
