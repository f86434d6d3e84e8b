package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

type RealtimeHandler struct {
	events realtime.Subscriber
}

func NewRealtimeHandler(events realtime.Subscriber) *RealtimeHandler {
	return &RealtimeHandler{events: events}
}

// Stream forwards INSERT, UPDATE and DELETE changes of one collection as
// server-sent events.
func (h *RealtimeHandler) Stream(c *fiber.Ctx) error {
	collection, err := store.ParseCollection(c.Params("collection"))
	if err != nil {
		return serviceError(c, err)
	}

	sub, err := h.events.Subscribe(c.UserContext(), string(collection))
	if err != nil {
		return serviceError(c, err)
	}
	return streamChanges(c, sub, nil)
}
