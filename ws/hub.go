package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event names carried on the socket.
const (
	EventJoinRoom       = "join_room"
	EventSendPrivate    = "send_private_message"
	EventReceivePrivate = "receive_private_message"
)

// Frame is the JSON envelope for every socket message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client represents one WebSocket connection of an authenticated user.
// A user may hold several connections (multiple tabs).
type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub keeps the connected clients and routes private messages to the
// recipient's open connections.
type Hub struct {
	mu         sync.Mutex
	clients    map[uint][]*Client
	Register   chan *Client
	Unregister chan *Client

	// OnPrivateMessage is invoked for send_private_message frames read off a
	// connection. The handlers package wires persistence in here so the hub
	// itself stays free of database access.
	OnPrivateMessage func(senderID uint, data json.RawMessage)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}

// remove drops the client and closes its Send channel. Callers must hold mu;
// closing only under the lock keeps SendToUser from writing to a closed
// channel.
func (h *Hub) remove(client *Client) {
	conns := h.clients[client.UserID]
	for i, conn := range conns {
		if conn == client {
			h.clients[client.UserID] = append(conns[:i], conns[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
	}
}

// SendToUser pushes an event frame to every open connection of a user and
// reports whether at least one connection accepted it. Users without an open
// connection simply miss the push; they pick the message up over the REST API.
func (h *Hub) SendToUser(userID uint, event string, data interface{}) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("ws: marshal %s payload: %v", event, err)
		return false
	}
	frame, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		log.Printf("ws: marshal frame: %v", err)
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := false
	for _, client := range append([]*Client(nil), h.clients[userID]...) {
		select {
		case client.Send <- frame:
			delivered = true
		default:
			// Slow consumer; drop the connection rather than block everyone.
			h.remove(client)
		}
	}
	return delivered
}
