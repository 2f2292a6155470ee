package live

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"
)

// Message is the envelope pushed to websocket subscribers of an event room.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

// RegistrationCountPayload is broadcast whenever an event's registration
// count changes, so coordinator dashboards can refresh without polling.
type RegistrationCountPayload struct {
	EventID           int `json:"event_id"`
	RegistrationCount int `json:"registration_count"`
}

type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.Room]; ok {
				if _, okClient := clients[client]; okClient {
					client.close()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom sends a message to every client subscribed to the room.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, ok := h.rooms[roomID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("live: failed to marshal message for room %s: %v", roomID, err)
		return
	}

	for client := range roomClients {
		client.Mu.Lock()
		if client.IsClosed {
			client.Mu.Unlock()
			continue
		}
		select {
		case client.Send <- messageBytes:
		default:
			// Slow consumer; drop the update rather than block the hub.
		}
		client.Mu.Unlock()
	}
}

// NotifyRegistrationCount publishes the current registration count of an
// event to its room.
func (h *Hub) NotifyRegistrationCount(eventID, count int) {
	room := EventRoom(eventID)
	h.BroadcastToRoom(room, Message{
		Type:    "REGISTRATION_COUNT_UPDATED",
		RoomID:  room,
		Payload: RegistrationCountPayload{EventID: eventID, RegistrationCount: count},
	})
}

// EventRoom names the websocket room of an event.
func EventRoom(eventID int) string {
	return "event:" + strconv.Itoa(eventID)
}
