package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
)

// RoomAdmin receives every order and product event.
const RoomAdmin = "admin"

// VendorRoom names the room that receives events for one vendor's
// orders.
func VendorRoom(vendorID string) string {
	return "vendor:" + vendorID
}

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roomEvent is an internal struct for routing events to rooms. A nil
// room list means every room.
type roomEvent struct {
	Rooms []string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by room name
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *roomEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			targets := event.Rooms
			if targets == nil {
				targets = make([]string, 0, len(h.rooms))
				for room := range h.rooms {
					targets = append(targets, room)
				}
			}

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for _, room := range targets {
				for client := range h.rooms[room] {
					select {
					case client.send <- message:
					default:
						// Client's send buffer is full, close and unregister
						close(client.send)
						delete(h.rooms[room], client)
						if len(h.rooms[room]) == 0 {
							delete(h.rooms, room)
						}
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRooms sends an event to all clients in the given rooms
func (h *Hub) BroadcastToRooms(rooms []string, event Event) {
	h.broadcast <- &roomEvent{Rooms: rooms, Event: event}
}

// BroadcastAll sends an event to every connected client
func (h *Hub) BroadcastAll(event Event) {
	h.broadcast <- &roomEvent{Event: event}
}

// OrderChanged publishes an order event to the admin room and the
// owning vendor's room.
func (h *Hub) OrderChanged(eventType string, order *crm.Order) {
	payload, err := json.Marshal(map[string]string{
		"id":          order.ID,
		"orderNumber": order.OrderNumber,
	})
	if err != nil {
		log.Printf("ERROR: marshal order event: %v", err)
		return
	}
	rooms := []string{RoomAdmin}
	if order.Vendor.ID != "" {
		rooms = append(rooms, VendorRoom(order.Vendor.ID))
	}
	h.BroadcastToRooms(rooms, Event{Type: eventType, Payload: payload})
}

// ProductChanged publishes a product event to every connected client.
func (h *Hub) ProductChanged(eventType, productID string) {
	payload, err := json.Marshal(map[string]string{"id": productID})
	if err != nil {
		log.Printf("ERROR: marshal product event: %v", err)
		return
	}
	h.BroadcastAll(Event{Type: eventType, Payload: payload})
}
