package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notify-center/internal/middleware"
	"notify-center/internal/services"
)

// DefaultKeepaliveInterval bounds how long the stream may stay silent.
// Intermediary proxies treat idle connections as dead, so the client
// receives at least one frame per interval even with nothing pending.
const DefaultKeepaliveInterval = 30 * time.Second

// StreamHandler serves the long-lived SSE push stream. One goroutine per
// connection blocks on the session mailbox with a keepalive timeout; the
// deferred unregister runs on every exit path, including client disconnect
// and server shutdown, so a session can never leak its mailbox.
type StreamHandler struct {
	broadcaster *services.Broadcaster
	keepalive   time.Duration
}

func NewStreamHandler(broadcaster *services.Broadcaster, keepalive time.Duration) *StreamHandler {
	if keepalive <= 0 {
		keepalive = DefaultKeepaliveInterval
	}
	return &StreamHandler{broadcaster: broadcaster, keepalive: keepalive}
}

// Stream upgrades the request to a server-sent event stream. The identity is
// taken from the connection parameters; anonymous sessions receive only
// global notifications. The first frame is always the connected handshake.
func (h *StreamHandler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	session := h.broadcaster.Register(middleware.Identity(c))
	defer h.broadcaster.Unregister(session)

	if err := writeFrame(c, gin.H{"type": "connected"}); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-session.Mailbox:
			if err := writeFrame(c, n); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if err := writeFrame(c, gin.H{"type": "ping"}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeFrame emits one SSE data frame: "data: " + JSON + blank line.
func writeFrame(c *gin.Context, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := c.Writer.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := c.Writer.Write(b); err != nil {
		return err
	}
	_, err = c.Writer.Write([]byte("\n\n"))
	return err
}
