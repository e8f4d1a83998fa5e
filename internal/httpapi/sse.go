package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"brickDelivery/internal/auth"
	"brickDelivery/internal/live"
)

// stream pushes a snapshot event for every change to q until the client
// leaves or its session ends.
func (s *Server) stream(c *gin.Context, q live.Query) {
	if s.d.Broker == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	ctx := c.Request.Context()
	snaps, unsubscribe := s.d.Broker.Subscribe(ctx, q)
	defer unsubscribe()

	var ended <-chan struct{}
	if p := auth.PrincipalFrom(c); p != nil && s.d.Sessions != nil {
		ch, stop := s.d.Sessions.Ended(p.Token)
		defer stop()
		ended = ch
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	keepAlive := time.NewTicker(s.d.KeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ended:
			c.SSEvent("signed_out", gin.H{"reason": "session ended"})
			c.Writer.Flush()
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			c.SSEvent("snapshot", snap)
			c.Writer.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(c.Writer, ": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
