package gateway

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// EventBroadcaster fans sequenced events out to every connected client.
// Sequence numbers are shared across streams so clients can spot gaps.
type EventBroadcaster struct {
	clients *ClientRegistry
	logger  zerolog.Logger
	seq     atomic.Int64
	now     func() time.Time
}

func NewEventBroadcaster(clients *ClientRegistry, logger zerolog.Logger) *EventBroadcaster {
	return &EventBroadcaster{clients: clients, logger: logger, now: time.Now}
}

// Broadcast sends a plain event with no stream.
func (b *EventBroadcaster) Broadcast(event string, data interface{}) {
	b.BroadcastTyped(EventMessage{Event: event, Data: data})
}

// BroadcastTyped stamps msg and writes it to every client. Clients that fail
// the write are logged and left for their read loop to drop.
func (b *EventBroadcaster) BroadcastTyped(msg EventMessage) {
	b.stamp(&msg)

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error().Err(err).Str("event", msg.Event).Msg("Failed to marshal event")
		return
	}

	clients := b.clients.Snapshot()
	if len(clients) == 0 {
		return
	}

	var failed []string
	for _, c := range clients {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			failed = append(failed, c.ID)
		}
	}

	if len(failed) > 0 {
		b.logger.Warn().
			Str("event", msg.Event).
			Int64("seq", msg.Seq).
			Strs("clients", failed).
			Msg("Event not delivered to some clients")
	}
	b.logger.Debug().
		Str("event", msg.Event).
		Str("stream", string(msg.Stream)).
		Int64("seq", msg.Seq).
		Int("delivered", len(clients)-len(failed)).
		Msg("Event broadcast")
}

func (b *EventBroadcaster) stamp(msg *EventMessage) {
	msg.Type = "event"
	if msg.Seq == 0 {
		msg.Seq = b.seq.Add(1)
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = b.now().UnixMilli()
	}
}
