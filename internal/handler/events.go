package handler

import (
	"io"

	"pulsenet-client/internal/mapview"
	"pulsenet-client/internal/service"

	"github.com/gin-gonic/gin"
)

// eventBuffer bounds the notifications queued for a slow stream; further ones are dropped.
const eventBuffer = 16

// Events handles GET /events requests, streaming a "state" event for the current state and
// then one per controller or map change.
func (h *Handler) Events(c *gin.Context) {
	changes := make(chan struct{}, eventBuffer)
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}

	stopController := h.controller.Subscribe(func(_ service.State) { notify() })
	defer stopController()
	stopMap := h.routes.Subscribe(func(_ mapview.View) { notify() })
	defer stopMap()

	h.logger.Debug().Str("remote", c.ClientIP()).Msg("event stream opened")
	defer h.logger.Debug().Str("remote", c.ClientIP()).Msg("event stream closed")

	c.Header("Cache-Control", "no-cache")
	c.SSEvent("state", h.snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-changes:
			c.SSEvent("state", h.snapshot())
			return true
		}
	})
}
