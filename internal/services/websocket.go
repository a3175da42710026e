package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/goldlinerides/goldline-backend/internal/observability"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// SubscriptionBackend answers the two questions the hub cannot answer
// itself: may this user watch this ride, and what does the message
// history look like right now.
type SubscriptionBackend interface {
	CanSubscribe(userID, rideID uint) bool
	History(rideID uint) ([]models.Message, error)
}

// Client represents a WebSocket client
type Client struct {
	ID       uint
	UserType string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub

	mu    sync.Mutex
	rides map[uint]bool            // ride ids this client is subscribed to
	seen  map[uint]map[uint]bool   // per-ride message ids already delivered
}

// Hub maintains the set of active clients and routes live updates
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mutex      sync.RWMutex

	backend SubscriptionBackend
}

// NewHub creates a new WebSocket hub
func NewHub(backend SubscriptionBackend) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		backend:    backend,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			observability.WSClients.Inc()
			log.Printf("Client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				observability.WSClients.Dec()
			}
			h.mutex.Unlock()
			log.Printf("Client %d disconnected", client.ID)

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					log.Printf("Warning: Could not send to client %d (channel full)", client.ID)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.ID == userID {
			select {
			case client.Send <- message:
			default:
				log.Printf("Warning: Could not send to client %d (channel full)", client.ID)
			}
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocket message types
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// clientFrame is what clients send: subscribe/unsubscribe to a ride's
// live message stream.
type clientFrame struct {
	Type   string `json:"type"`
	RideID uint   `json:"rideId"`
}

// MessageHistory is the snapshot sent on subscribe, sorted ascending.
type MessageHistory struct {
	RideID   uint             `json:"rideId"`
	Messages []models.Message `json:"messages"`
}

// RideStatusUpdate notifies both parties of a lifecycle change.
type RideStatusUpdate struct {
	RideID uint   `json:"rideId"`
	Status string `json:"status"`
}

// DriverStatusUpdate notifies watchers that a driver went on/offline.
type DriverStatusUpdate struct {
	DriverID uint `json:"driverId"`
	IsOnline bool `json:"isOnline"`
}

// SortMessages orders chat history by timestamp ascending before it is
// handed to any client. The fan-out layer does not guarantee arrival
// order matches timestamp order, so this re-sort is load-bearing, not
// cosmetic.
func SortMessages(messages []models.Message) []models.Message {
	sorted := make([]models.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, userType string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:       userID,
		UserType: userType,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
		rides:    make(map[uint]bool),
		seen:     make(map[uint]map[uint]bool),
	}

	client.Hub.register <- client

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Printf("Error unmarshaling WebSocket message: %v", err)
			continue
		}

		switch frame.Type {
		case "subscribe":
			c.subscribe(frame.RideID)
		case "unsubscribe":
			c.unsubscribe(frame.RideID)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// subscribe attaches the client to a ride's message stream and replays
// the history snapshot. Authorization is checked here: only the ride's
// parties may listen.
func (c *Client) subscribe(rideID uint) {
	if rideID == 0 {
		return
	}
	if c.Hub.backend != nil && !c.Hub.backend.CanSubscribe(c.ID, rideID) {
		c.sendEvent("subscribe_denied", map[string]uint{"rideId": rideID})
		return
	}

	c.mu.Lock()
	c.rides[rideID] = true
	if c.seen[rideID] == nil {
		c.seen[rideID] = make(map[uint]bool)
	}
	c.mu.Unlock()

	if c.Hub.backend == nil {
		return
	}
	history, err := c.Hub.backend.History(rideID)
	if err != nil {
		log.Printf("Error loading message history for ride %d: %v", rideID, err)
		history = nil
	}
	history = SortMessages(history)

	// A message committed while the history query was in flight has
	// already gone out as a live frame and is marked seen. Filter it
	// from the snapshot under the same lock that marks the rest, so
	// no id is ever emitted twice within one subscription.
	c.mu.Lock()
	if c.seen[rideID] == nil {
		// Torn down concurrently.
		c.mu.Unlock()
		return
	}
	snapshot := make([]models.Message, 0, len(history))
	for _, m := range history {
		if c.seen[rideID][m.ID] {
			continue
		}
		c.seen[rideID][m.ID] = true
		snapshot = append(snapshot, m)
	}
	c.mu.Unlock()

	c.sendEvent("message_history", MessageHistory{RideID: rideID, Messages: snapshot})
}

// unsubscribe tears the subscription down. The seen set goes with it:
// a fresh subscribe replays the full snapshot again.
func (c *Client) unsubscribe(rideID uint) {
	c.mu.Lock()
	delete(c.rides, rideID)
	delete(c.seen, rideID)
	c.mu.Unlock()
}

// DeliverMessage pushes one chat message to this client if it is
// subscribed to the ride. Each message id is delivered at most once per
// subscription lifetime, however many times the fan-out layer redelivers
// the same document.
func (c *Client) DeliverMessage(msg models.Message) bool {
	c.mu.Lock()
	if !c.rides[msg.RideID] {
		c.mu.Unlock()
		return false
	}
	if c.seen[msg.RideID][msg.ID] {
		c.mu.Unlock()
		return false
	}
	c.seen[msg.RideID][msg.ID] = true
	c.mu.Unlock()

	return c.sendEvent("new_message", msg)
}

func (c *Client) sendEvent(eventType string, data interface{}) bool {
	payload, err := json.Marshal(WebSocketMessage{Type: eventType, Data: data})
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		log.Printf("Warning: Could not send to client %d (channel full)", c.ID)
		return false
	}
}

// SendNewMessage fans a chat message out to every subscribed client and
// to the receiver's general stream (for the unread badge on the thread
// list).
func (hub *Hub) SendNewMessage(msg models.Message) {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()

	for client := range hub.clients {
		client.DeliverMessage(msg)
	}
}

// SendRideStatusUpdate notifies both parties of a ride status change.
func (hub *Hub) SendRideStatusUpdate(update RideStatusUpdate, userIDs ...uint) {
	message := WebSocketMessage{
		Type: "ride_status_update",
		Data: update,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling ride status update: %v", err)
		return
	}

	for _, id := range userIDs {
		if id != 0 {
			hub.BroadcastToUser(id, data)
		}
	}
}

// SendDriverStatusUpdate broadcasts a presence flip to all clients, so
// booking screens can refresh their available-driver lists.
func (hub *Hub) SendDriverStatusUpdate(update DriverStatusUpdate) {
	message := WebSocketMessage{
		Type: "driver_status_update",
		Data: update,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling driver status update: %v", err)
		return
	}

	hub.broadcast <- data
}
