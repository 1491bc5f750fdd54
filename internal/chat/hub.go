package chat

import (
	"sync"

	"cleanserve/internal/logger"
)

// Client is one connected websocket, identified by user and pinned to a
// booking room.
type Client struct {
	UserID    string
	BookingID string
	Send      chan []byte
}

// Hub tracks connected chat clients per booking room. Messages are
// transient, nothing is persisted.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	log     *logger.Logger
	sendBuf int
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		log:     log,
		sendBuf: 32,
	}
}

func (h *Hub) Register(userID, bookingID string) *Client {
	client := &Client{
		UserID:    userID,
		BookingID: bookingID,
		Send:      make(chan []byte, h.sendBuf),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[bookingID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[bookingID] = room
	}
	room[client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[client.BookingID]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	close(client.Send)
	if len(room) == 0 {
		delete(h.rooms, client.BookingID)
	}
}

// Relay delivers a payload to everyone else in the sender's room. Slow
// consumers are dropped from the message, not the room.
func (h *Hub) Relay(sender *Client, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[sender.BookingID] {
		if client == sender {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			h.log.Warn("CHAT", "dropping message for slow client "+client.UserID)
		}
	}
}

// RoomSize reports how many clients share a booking room.
func (h *Hub) RoomSize(bookingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[bookingID])
}
