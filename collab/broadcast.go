package collab

import (
	"github.com/sirupsen/logrus"
)

// Conn is the lightweight handle this package keeps for a transport
// connection. The transport owns the socket; this side only needs a stable
// identity and a one-way emit.
type Conn interface {
	ID() string
	Emit(event string, payload any) error
}

// Broadcaster fans events out to the connections of a room. Delivery is
// one-way and best-effort: a recipient that errors mid-close is skipped and
// reaped by the next disconnect or sweep cycle.
type Broadcaster struct {
	router *Router
}

func NewBroadcaster(router *Router) *Broadcaster {
	return &Broadcaster{router: router}
}

// NotifyRoom delivers payload to every connection in the room except
// exclude, when non-nil. Senders do not get an echo of their own action.
func (b *Broadcaster) NotifyRoom(roomKey, event string, payload any, exclude Conn) {
	for _, c := range b.router.Connections(roomKey) {
		if exclude != nil && c.ID() == exclude.ID() {
			continue
		}
		b.emit(c, roomKey, event, payload)
	}
}

// NotifyRoomAll delivers payload to every connection in the room, sender
// included. Used for status transitions, where the sender's own view must
// reflect the confirmed change.
func (b *Broadcaster) NotifyRoomAll(roomKey, event string, payload any) {
	for _, c := range b.router.Connections(roomKey) {
		b.emit(c, roomKey, event, payload)
	}
}

// ReplyTo unicasts to a single connection.
func (b *Broadcaster) ReplyTo(c Conn, event string, payload any) {
	if err := c.Emit(event, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"conn_id": c.ID(),
			"event":   event,
		}).WithError(err).Debug("Unicast delivery failed")
	}
}

func (b *Broadcaster) emit(c Conn, roomKey, event string, payload any) {
	if err := c.Emit(event, payload); err != nil {
		// Recipient is likely mid-close; keep delivering to the rest.
		logrus.WithFields(logrus.Fields{
			"conn_id":  c.ID(),
			"room_key": roomKey,
			"event":    event,
		}).WithError(err).Debug("Delivery to room member failed")
	}
}
