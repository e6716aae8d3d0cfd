package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"notify-center/internal/middleware"
	"notify-center/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler is the alternative push transport over the same session
// registry as the SSE stream. Each connection registers one session and
// follows the same mailbox, keepalive and unregister rules.
type WebSocketHandler struct {
	broadcaster *services.Broadcaster
	keepalive   time.Duration
}

func NewWebSocketHandler(broadcaster *services.Broadcaster, keepalive time.Duration) *WebSocketHandler {
	if keepalive <= 0 {
		keepalive = DefaultKeepaliveInterval
	}
	return &WebSocketHandler{broadcaster: broadcaster, keepalive: keepalive}
}

type wsClient struct {
	conn        *websocket.Conn
	session     *services.Session
	broadcaster *services.Broadcaster
}

func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	client := &wsClient{
		conn:        conn,
		session:     h.broadcaster.Register(middleware.Identity(c)),
		broadcaster: h.broadcaster,
	}

	go client.writePump(h.keepalive)
	go client.readPump()
}

// writePump drains the session mailbox onto the socket, one JSON frame per
// notification, pinging on the keepalive interval when idle. Any write
// failure tears the connection down; unregistration is deferred so it runs
// on every exit path.
func (c *wsClient) writePump(keepalive time.Duration) {
	ticker := time.NewTicker(keepalive)
	defer func() {
		ticker.Stop()
		c.broadcaster.Unregister(c.session)
		c.conn.Close()
	}()

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteJSON(map[string]string{"type": "connected"}); err != nil {
		return
	}

	for {
		select {
		case n := <-c.session.Mailbox:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes (and discards) client frames so pongs and close frames
// are processed, and detects disconnects.
func (c *wsClient) readPump() {
	defer func() {
		c.broadcaster.Unregister(c.session)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			return
		}
	}
}
