package collab

import (
	"context"
	"sync"

	"collab-server/core"

	"github.com/sirupsen/logrus"
)

// Outbound event names.
const (
	EventPresenceUpdate = "presence-update"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventUserTyping     = "user-typing"
	EventFieldUpdated   = "field-updated"
	EventStatusChanged  = "status-changed"
)

// LeftNotice is the user-left broadcast payload.
type LeftNotice struct {
	UserID string `json:"userId"`
}

// Manager translates connection events into registry updates and broadcasts.
// It is the only writer of the registry and router on the event path, and it
// keeps the two consistent on every join, leave, and disconnect.
type Manager struct {
	registry    *Registry
	router      *Router
	broadcaster *Broadcaster
	activity    core.ActivityStore // optional

	mu         sync.Mutex
	identities map[string]string // connID -> last announced userID
}

func NewManager(registry *Registry, router *Router, broadcaster *Broadcaster, activity core.ActivityStore) *Manager {
	return &Manager{
		registry:    registry,
		router:      router,
		broadcaster: broadcaster,
		activity:    activity,
		identities:  make(map[string]string),
	}
}

// HandleJoin processes a join-resource event: room association, presence
// upsert, user-joined fan-out to existing members, and the roster reply to
// the joiner.
func (m *Manager) HandleJoin(c Conn, data map[string]any) {
	p, err := DecodeJoin(data)
	if err != nil {
		m.dropped(c, "join-resource", err)
		return
	}

	roomKey, roster, err := m.router.Join(c, p.ResourceType, p.ResourceID, p.UserID, p.UserName)
	if err != nil {
		m.dropped(c, "join-resource", err)
		return
	}

	m.mu.Lock()
	m.identities[c.ID()] = p.UserID
	m.mu.Unlock()

	var joined core.Presence
	for _, entry := range roster {
		if entry.UserID == p.UserID {
			joined = entry
			break
		}
	}

	logrus.WithFields(logrus.Fields{
		"room_key": roomKey,
		"user_id":  p.UserID,
		"members":  len(roster),
	}).Info("User joined room")

	m.broadcaster.NotifyRoom(roomKey, EventUserJoined, joined, c)
	m.broadcaster.ReplyTo(c, EventPresenceUpdate, roster)

	m.recordJoin(roomKey, p.UserID)
}

// HandleLeave processes an explicit leave-resource event.
func (m *Manager) HandleLeave(c Conn, data map[string]any) {
	p, err := DecodeLeave(data)
	if err != nil {
		m.dropped(c, "leave-resource", err)
		return
	}

	roomKey := core.RoomKey(p.ResourceType, p.ResourceID)
	if !m.router.InRoom(c, roomKey) {
		// Stale client state, not a protocol violation.
		return
	}

	_, roster, err := m.router.Leave(c, p.ResourceType, p.ResourceID, p.UserID)
	if err != nil {
		m.dropped(c, "leave-resource", err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"room_key": roomKey,
		"user_id":  p.UserID,
	}).Info("User left room")

	m.broadcaster.NotifyRoom(roomKey, EventUserLeft, LeftNotice{UserID: p.UserID}, c)

	if len(roster) == 0 {
		m.deleteRoom(roomKey)
	}
}

// HandleTyping passes a typing event through to the room, excluding the
// sender. No registry mutation; LastSeenAt is deliberately not refreshed.
func (m *Manager) HandleTyping(c Conn, data map[string]any) {
	p, err := DecodeTyping(data)
	if err != nil {
		m.dropped(c, "typing", err)
		return
	}

	roomKey := core.RoomKey(p.ResourceType, p.ResourceID)
	if !m.router.InRoom(c, roomKey) {
		return
	}
	m.broadcaster.NotifyRoom(roomKey, EventUserTyping, p, c)
}

// HandleFieldUpdate passes a field-update event through to the room,
// excluding the sender.
func (m *Manager) HandleFieldUpdate(c Conn, data map[string]any) {
	p, err := DecodeFieldUpdate(data)
	if err != nil {
		m.dropped(c, "field-update", err)
		return
	}

	roomKey := core.RoomKey(p.ResourceType, p.ResourceID)
	if !m.router.InRoom(c, roomKey) {
		return
	}
	m.broadcaster.NotifyRoom(roomKey, EventFieldUpdated, p, c)
}

// HandleStatusChange broadcasts a status transition to the whole room,
// sender included, so the sender's UI reflects the confirmed transition.
func (m *Manager) HandleStatusChange(c Conn, data map[string]any) {
	p, err := DecodeStatusChange(data)
	if err != nil {
		m.dropped(c, "status-change", err)
		return
	}

	roomKey := core.RoomKey(p.ResourceType, p.ResourceID)
	if !m.router.InRoom(c, roomKey) {
		return
	}
	m.broadcaster.NotifyRoomAll(roomKey, EventStatusChanged, p)
}

// HandleDisconnect performs the leave sequence for every room the
// connection had joined. This is the only path that must tolerate a client
// never announcing its departure.
func (m *Manager) HandleDisconnect(c Conn) {
	m.mu.Lock()
	userID := m.identities[c.ID()]
	delete(m.identities, c.ID())
	m.mu.Unlock()

	rooms := m.router.RoomsFor(c)
	m.router.Forget(c)

	if userID == "" {
		return // connection never joined anything
	}

	for _, roomKey := range rooms {
		roster := m.registry.Remove(roomKey, userID)

		logrus.WithFields(logrus.Fields{
			"room_key": roomKey,
			"user_id":  userID,
		}).Info("User disconnected from room")

		m.broadcaster.NotifyRoom(roomKey, EventUserLeft, LeftNotice{UserID: userID}, c)

		if len(roster) == 0 {
			m.deleteRoom(roomKey)
		}
	}
}

func (m *Manager) dropped(c Conn, event string, err error) {
	logrus.WithFields(logrus.Fields{
		"conn_id": c.ID(),
		"event":   event,
	}).WithError(err).Warn("Dropping malformed event")
}

// Activity-store bookkeeping is best-effort; failures are logged and never
// block or fail the event path.

func (m *Manager) recordJoin(roomKey, userID string) {
	if m.activity == nil {
		return
	}
	ctx := context.Background()
	if err := m.activity.TouchRoom(ctx, roomKey); err != nil {
		logrus.WithField("room_key", roomKey).WithError(err).Warn("Failed to touch room activity")
	}
	if _, err := m.activity.RecordJoin(ctx, roomKey, userID); err != nil {
		logrus.WithField("room_key", roomKey).WithError(err).Warn("Failed to record join audit")
	}
}

func (m *Manager) deleteRoom(roomKey string) {
	if m.activity == nil {
		return
	}
	if err := m.activity.DeleteRoom(context.Background(), roomKey); err != nil {
		logrus.WithField("room_key", roomKey).WithError(err).Warn("Failed to delete room activity")
	}
}
