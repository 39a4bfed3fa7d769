package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// JoinChecker decides whether a user may subscribe to a deal's room.
// Wired to the persistence layer: seller or bidder only.
type JoinChecker func(dealID, userID uint) bool

// MessageSender persists a chat message arriving over the socket and
// triggers its own fan-out. Set after construction to break the cycle
// between the hub and the messaging relay.
type MessageSender func(dealID, senderID uint, content string) error

// Event is the envelope for every server->client frame.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks connected clients twice over: rooms keyed by deal ID for
// everyone currently viewing a deal, and personal channels keyed by user
// ID. Delivery is best-effort; clients that cannot keep up are dropped.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]bool
	users map[uint]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client

	canJoin JoinChecker
	send    MessageSender
}

func NewHub(canJoin JoinChecker) *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]bool),
		users:      make(map[uint]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		canJoin:    canJoin,
	}
}

func (h *Hub) SetMessageSender(send MessageSender) {
	h.send = send
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.users[client.UserID]; !ok {
				h.users[client.UserID] = make(map[*Client]bool)
			}
			h.users[client.UserID][client] = true
			h.mu.Unlock()
			log.Printf("client registered: user=%d conn=%s", client.UserID, client.ID)

		case client := <-h.Unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
			log.Printf("client unregistered: user=%d conn=%s", client.UserID, client.ID)
		}
	}
}

// drop removes the client from its personal channel and every room.
// Callers must hold h.mu.
func (h *Hub) drop(client *Client) {
	if userClients, ok := h.users[client.UserID]; ok {
		if userClients[client] {
			delete(userClients, client)
			close(client.Send)
		}
		if len(userClients) == 0 {
			delete(h.users, client.UserID)
		}
	}
	for dealID := range client.rooms {
		if room, ok := h.rooms[dealID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, dealID)
			}
		}
	}
}

// JoinRoom subscribes the client to a deal's room after the capability
// check. Authorization for the underlying data already happened at the
// persistence operations; this gate only keeps strangers out of the feed.
func (h *Hub) JoinRoom(client *Client, dealID uint) bool {
	if h.canJoin != nil && !h.canJoin(dealID, client.UserID) {
		log.Printf("room join refused: user=%d deal=%d", client.UserID, dealID)
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[dealID]; !ok {
		h.rooms[dealID] = make(map[*Client]bool)
	}
	h.rooms[dealID][client] = true
	client.rooms[dealID] = true
	return true
}

// PublishToRoom broadcasts to everyone currently viewing the deal.
func (h *Hub) PublishToRoom(dealID uint, event string, payload interface{}) {
	data, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		log.Println("failed to marshal event:", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.rooms[dealID] {
		h.deliver(client, data)
	}
}

// PublishToUser broadcasts to every connection of a single user.
func (h *Hub) PublishToUser(userID uint, event string, payload interface{}) {
	data, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		log.Println("failed to marshal event:", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.users[userID] {
		h.deliver(client, data)
	}
}

// deliver is non-blocking: a client with a full send buffer is dropped
// rather than stalling the broadcast. Callers must hold h.mu.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		h.drop(client)
	}
}
