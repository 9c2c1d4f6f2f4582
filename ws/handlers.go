package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"clinic-app-server/internal/config"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced at the router level.
		return true
	},
}

// ServeWS upgrades an HTTP request to a WebSocket connection. Browsers cannot
// set an Authorization header on a socket handshake, so the access token is
// read from the "token" query parameter instead.
func ServeWS(hub *Hub, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.Unauthorized(c, "token query parameter required")
			return
		}
		claims, err := utils.ValidateToken(token, cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("ws: upgrade failed: %v", err)
			return
		}

		client := &Client{UserID: claims.UserID, Conn: conn, Send: make(chan []byte, 256)}
		hub.Register <- client

		go client.writePump()
		go client.readPump(hub)
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: read error: %v", err)
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Printf("ws: bad frame from user %d: %v", c.UserID, err)
			continue
		}

		switch frame.Event {
		case EventJoinRoom:
			// Registration already happened at handshake; kept so older
			// clients that emit join_room keep working.
		case EventSendPrivate:
			if hub.OnPrivateMessage != nil {
				hub.OnPrivateMessage(c.UserID, frame.Data)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
