package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// upgrader accepts same-origin and cross-origin dev clients alike; this
// service has no cookie-based session to protect against CSRF-style
// upgrade abuse.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const eventStreamPollInterval = 200 * time.Millisecond

// handleEventStream upgrades to a websocket and pushes newly emitted
// events for one execution as they land in its EventLog, until the
// client disconnects or a write to it fails; the stream stays open after
// the execution reaches a terminal state. Unlike a
// multi-client pub/sub hub, this is one goroutine polling one EventLog
// for one connection — proportionate to an inspector stream with a
// single viewer per execution rather than a broadcast fan-out.
func (s *Server) handleEventStream(c *gin.Context) {
	executionID := c.Param("id")
	log, ok := s.manager.EventLog(executionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("event stream upgrade failed", "executionId", executionID, "error", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(eventStreamPollInterval)
	defer ticker.Stop()

	sent := 0
	for {
		events := log.Events()
		for ; sent < len(events); sent++ {
			if err := conn.WriteJSON(events[sent]); err != nil {
				return
			}
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}
