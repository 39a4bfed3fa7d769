package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"deal-market-server/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	ID     uuid.UUID
	UserID uint
	Send   chan []byte
	rooms  map[uint]bool
}

// inboundFrame is a client->server command: joinRoom or sendMessage.
type inboundFrame struct {
	Event   string `json:"event"`
	DealID  uint   `json:"dealID"`
	Content string `json:"content"`
}

// ServeWS upgrades an authenticated request to a websocket connection.
// The jwt verifier already ran; the access token identifies the user for
// personal-channel delivery and room capability checks.
func ServeWS(hub *Hub) iris.Handler {
	return func(ctx iris.Context) {
		claims := jsonWT.Get(ctx).(*utils.AccessToken)

		conn, err := upgrader.Upgrade(ctx.ResponseWriter(), ctx.Request(), nil)
		if err != nil {
			log.Println("websocket upgrade failed:", err)
			return
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			ID:     uuid.New(),
			UserID: claims.ID,
			Send:   make(chan []byte, 64),
			rooms:  make(map[uint]bool),
		}
		hub.Register <- client

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Println("websocket read error:", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Println("malformed client frame:", err)
			continue
		}

		switch frame.Event {
		case "joinRoom":
			c.hub.JoinRoom(c, frame.DealID)
		case "sendMessage":
			if c.hub.send == nil {
				continue
			}
			if err := c.hub.send(frame.DealID, c.UserID, frame.Content); err != nil {
				log.Printf("socket message rejected: user=%d deal=%d: %v", c.UserID, frame.DealID, err)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
