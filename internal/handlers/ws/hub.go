package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// ClientConnection wraps a WebSocket connection with metadata
type ClientConnection struct {
	Conn       *websocket.Conn
	UserID     uint
	LastPong   time.Time
	PingTicker *time.Ticker
	CloseChan  chan struct{}

	// threads this connection is subscribed to
	threads map[uint]struct{}
}

// Hub manages active WebSocket connections and their thread subscriptions.
// Delivery is live-only: a user who is offline when an event fires catches up
// from the REST history on reconnect.
type Hub struct {
	clients      map[uint]*ClientConnection
	clientsMux   sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	hub := &Hub{
		clients:      make(map[uint]*ClientConnection),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a client connection with health monitoring. The returned
// connection handle identifies this registration for UnregisterClient.
func (h *Hub) Register(userID uint, conn *websocket.Conn) *ClientConnection {
	clientConn := &ClientConnection{
		Conn:       conn,
		UserID:     userID,
		LastPong:   time.Now(),
		PingTicker: time.NewTicker(h.pingInterval),
		CloseChan:  make(chan struct{}),
		threads:    make(map[uint]struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.clientsMux.Lock()
		if client, exists := h.clients[userID]; exists {
			client.LastPong = time.Now()
		}
		h.clientsMux.Unlock()
		return nil
	})

	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.swapIn(clientConn)

	go h.pingRoutine(clientConn)

	log.Printf("User %d connected to hub (total: %d)", userID, h.Count())
	return clientConn
}

// swapIn installs the connection as the user's current one. A replaced
// connection gets its ping routine stopped so it cannot later tear down the
// replacement.
func (h *Hub) swapIn(client *ClientConnection) {
	h.clientsMux.Lock()
	if old, exists := h.clients[client.UserID]; exists {
		old.PingTicker.Stop()
		close(old.CloseChan)
	}
	h.clients[client.UserID] = client
	h.clientsMux.Unlock()
}

// Unregister removes whatever connection the user currently has
func (h *Hub) Unregister(userID uint) {
	h.clientsMux.Lock()
	if client, exists := h.clients[userID]; exists {
		if client.PingTicker != nil {
			client.PingTicker.Stop()
		}
		close(client.CloseChan)
	}
	delete(h.clients, userID)
	count := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("User %d disconnected from hub (total: %d)", userID, count)
}

// UnregisterClient removes the connection only while it is still the user's
// current one. A handle that was replaced by a reconnect is a no-op here, so
// stale read loops and ping routines cannot tear down the new connection.
func (h *Hub) UnregisterClient(client *ClientConnection) {
	h.clientsMux.Lock()
	current, exists := h.clients[client.UserID]
	if !exists || current != client {
		h.clientsMux.Unlock()
		return
	}
	if client.PingTicker != nil {
		client.PingTicker.Stop()
	}
	close(client.CloseChan)
	delete(h.clients, client.UserID)
	count := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("User %d disconnected from hub (total: %d)", client.UserID, count)
}

// Subscribe adds the user's connection to a thread's fanout set.
func (h *Hub) Subscribe(userID, threadID uint) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	if client, exists := h.clients[userID]; exists {
		client.threads[threadID] = struct{}{}
	}
}

// Unsubscribe removes the user's connection from a thread's fanout set.
func (h *Hub) Unsubscribe(userID, threadID uint) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	if client, exists := h.clients[userID]; exists {
		delete(client.threads, threadID)
	}
}

// IsOnline checks if a user is connected
func (h *Hub) IsOnline(userID uint) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// SendToUser sends data to a specific user if connected.
func (h *Hub) SendToUser(userID uint, data interface{}) error {
	h.clientsMux.RLock()
	clientConn, exists := h.clients[userID]
	h.clientsMux.RUnlock()

	if !exists {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling data for user %d: %v", userID, err)
		return err
	}

	if err := clientConn.Conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
		log.Printf("Error sending message to user %d: %v", userID, err)
		h.UnregisterClient(clientConn)
		return err
	}

	return nil
}

// BroadcastToThread sends data to every connection subscribed to the thread.
func (h *Hub) BroadcastToThread(threadID uint, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling thread broadcast: %v", err)
		return
	}

	h.clientsMux.RLock()
	subscribers := make([]*ClientConnection, 0)
	for _, client := range h.clients {
		if _, ok := client.threads[threadID]; ok {
			subscribers = append(subscribers, client)
		}
	}
	h.clientsMux.RUnlock()

	for _, client := range subscribers {
		if err := client.Conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			log.Printf("Error broadcasting to user %d: %v", client.UserID, err)
			h.UnregisterClient(client)
		}
	}
}

// BroadcastToUsers sends data to specific users
func (h *Hub) BroadcastToUsers(userIDs []uint, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling data: %v", err)
		return
	}

	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	for _, userID := range userIDs {
		if clientConn, exists := h.clients[userID]; exists {
			if err := clientConn.Conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
				log.Printf("Error sending to user %d: %v", userID, err)
			}
		}
	}
}

// GetOnlineUsers returns list of currently connected user IDs
func (h *Hub) GetOnlineUsers() []uint {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	users := make([]uint, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// pingRoutine sends periodic ping messages to keep connection alive
func (h *Hub) pingRoutine(client *ClientConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Ping routine recovered from panic for user %d: %v", client.UserID, r)
		}
	}()

	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			h.clientsMux.RLock()
			current := h.clients[client.UserID]
			h.clientsMux.RUnlock()

			if current != client {
				return
			}

			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				log.Printf("Ping failed for user %d: %v", client.UserID, err)
				h.UnregisterClient(client)
				return
			}
		}
	}
}

// connectionHealthChecker monitors connection health and removes dead connections
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.clientsMux.RLock()
		deadConnections := make([]uint, 0)
		now := time.Now()

		for userID, client := range h.clients {
			if now.Sub(client.LastPong) > h.pongTimeout {
				deadConnections = append(deadConnections, userID)
			}
		}
		h.clientsMux.RUnlock()

		for _, userID := range deadConnections {
			log.Printf("Removing dead connection for user %d (no pong received)", userID)
			h.Unregister(userID)
		}
	}
}
