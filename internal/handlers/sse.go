package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewSSEHandler(log *logger.Logger, hub *sse.Hub) *SSEHandler {
	return &SSEHandler{
		log: log.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// Stream serves one SSE connection subscribed to a single channel (the one
// returned by the mentor stream start call). The connection closes after the
// done event, on client disconnect, or when the hub drops a stalled client.
func (h *SSEHandler) Stream(c *gin.Context) {
	channel := strings.TrimSpace(c.Query("channel"))
	if channel == "" {
		RespondError(c, http.StatusBadRequest, "missing_channel", fmt.Errorf("channel is required"))
		return
	}

	client := h.hub.NewClient()
	h.hub.AddChannel(client, channel)
	defer h.hub.RemoveClient(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg := <-client.Outbound:
			c.SSEvent(string(msg.Event), msg.Data)
			return msg.Event != sse.EventDone
		case <-client.Done():
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}
