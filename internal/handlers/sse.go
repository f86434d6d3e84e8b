package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/tumbuhin/farmforecast/internal/realtime"
)

const heartbeatInterval = 30 * time.Second

// streamChanges writes the subscription to the client as server-sent events
// until either side goes away. keep may drop events; nil keeps all of them.
// The subscription is closed when the stream ends.
func streamChanges(c *fiber.Ctx, sub realtime.Subscription, keep func(realtime.Change) bool) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		if err := writeEvents(w, sub.Changes(), heartbeat.C, keep); err != nil {
			slog.Debug("event stream closed", "error", err)
		}
	}))
	return nil
}

// writeEvents pumps changes into w. It returns nil when the channel closes and
// the write error when the client disconnects.
func writeEvents(w *bufio.Writer, changes <-chan realtime.Change, heartbeat <-chan time.Time, keep func(realtime.Change) bool) error {
	if err := writeComment(w, "connected"); err != nil {
		return err
	}
	var seq int64
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if keep != nil && !keep(change) {
				continue
			}
			seq++
			if err := writeChange(w, seq, change); err != nil {
				return err
			}
		case <-heartbeat:
			if err := writeComment(w, "heartbeat"); err != nil {
				return err
			}
		}
	}
}

func writeChange(w *bufio.Writer, seq int64, change realtime.Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, strings.ToLower(string(change.Type)), data); err != nil {
		return err
	}
	return w.Flush()
}

func writeComment(w *bufio.Writer, text string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", text); err != nil {
		return err
	}
	return w.Flush()
}
