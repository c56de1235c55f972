package collab

import (
	"fmt"
	"sync"
	"time"

	"collab-server/core"
)

// Router maps connections to the rooms they have joined and rooms to their
// member connections. Rooms spring into existence on first join; there is no
// separate room-creation step or identifier allocator.
type Router struct {
	registry *Registry

	mu        sync.RWMutex
	connRooms map[string]map[string]struct{} // connID -> set of roomKey
	roomConns map[string]map[string]Conn     // roomKey -> connID -> conn
}

func NewRouter(registry *Registry) *Router {
	return &Router{
		registry:  registry,
		connRooms: make(map[string]map[string]struct{}),
		roomConns: make(map[string]map[string]Conn),
	}
}

// Join validates the resource type, associates the connection with the room
// and upserts the presence entry. Returns the room key and the post-join
// roster for the caller to echo back to the joiner.
func (r *Router) Join(c Conn, resourceType core.ResourceType, resourceID, userID, userName string) (string, []core.Presence, error) {
	if !core.ValidResourceType(resourceType) {
		return "", nil, fmt.Errorf("%w: %q", core.ErrInvalidResourceType, resourceType)
	}
	if resourceID == "" || userID == "" {
		return "", nil, fmt.Errorf("resource id and user id are required")
	}

	roomKey := core.RoomKey(resourceType, resourceID)

	r.mu.Lock()
	rooms := r.connRooms[c.ID()]
	if rooms == nil {
		rooms = make(map[string]struct{})
		r.connRooms[c.ID()] = rooms
	}
	rooms[roomKey] = struct{}{}

	members := r.roomConns[roomKey]
	if members == nil {
		members = make(map[string]Conn)
		r.roomConns[roomKey] = members
	}
	members[c.ID()] = c
	r.mu.Unlock()

	roster := r.registry.Upsert(roomKey, core.Presence{
		UserID:       userID,
		UserName:     userName,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		LastSeenAt:   time.Now().UnixMilli(),
	})
	return roomKey, roster, nil
}

// Leave removes the connection/room association and the user's presence
// entry. Returns the room key and the resulting roster (possibly empty).
func (r *Router) Leave(c Conn, resourceType core.ResourceType, resourceID, userID string) (string, []core.Presence, error) {
	if !core.ValidResourceType(resourceType) {
		return "", nil, fmt.Errorf("%w: %q", core.ErrInvalidResourceType, resourceType)
	}
	roomKey := core.RoomKey(resourceType, resourceID)

	r.detach(c, roomKey)
	roster := r.registry.Remove(roomKey, userID)
	return roomKey, roster, nil
}

// RoomsFor enumerates the keys of every room the connection has joined.
// Used by disconnect cleanup.
func (r *Router) RoomsFor(c Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.connRooms[c.ID()]))
	for key := range r.connRooms[c.ID()] {
		keys = append(keys, key)
	}
	return keys
}

// InRoom reports whether the connection has joined the room. Pass-through
// events from connections that never joined are dropped upstream.
func (r *Router) InRoom(c Conn, roomKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.connRooms[c.ID()][roomKey]
	return ok
}

// Connections returns the member connections of a room.
func (r *Router) Connections(roomKey string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.roomConns[roomKey]))
	for _, c := range r.roomConns[roomKey] {
		conns = append(conns, c)
	}
	return conns
}

// Forget drops every association the connection holds. Presence removal is
// the lifecycle manager's job; this only clears the connection maps.
func (r *Router) Forget(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomKey := range r.connRooms[c.ID()] {
		r.detachLocked(c, roomKey)
	}
	delete(r.connRooms, c.ID())
}

func (r *Router) detach(c Conn, roomKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detachLocked(c, roomKey)
	if len(r.connRooms[c.ID()]) == 0 {
		delete(r.connRooms, c.ID())
	}
}

func (r *Router) detachLocked(c Conn, roomKey string) {
	if rooms := r.connRooms[c.ID()]; rooms != nil {
		delete(rooms, roomKey)
	}
	if members := r.roomConns[roomKey]; members != nil {
		delete(members, c.ID())
		if len(members) == 0 {
			delete(r.roomConns, roomKey)
		}
	}
}
