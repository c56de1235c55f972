package collab

import (
	"sort"
	"sync"
	"time"

	"collab-server/core"

	"github.com/sirupsen/logrus"
)

// Registry is the authoritative room -> presence mapping. A room exists
// exactly as long as it has at least one presence entry; rooms left empty
// are evicted immediately, never kept as empty map entries.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]core.Presence // roomKey -> userID -> presence
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]core.Presence)}
}

// Upsert inserts or replaces the entry for presence.UserID in the room and
// returns the room's roster after the change. A repeated join by the same
// user replaces the entry, so userName changes take effect and LastSeenAt
// is refreshed.
func (r *Registry) Upsert(roomKey string, presence core.Presence) []core.Presence {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomKey]
	if room == nil {
		room = make(map[string]core.Presence)
		r.rooms[roomKey] = room
	}
	room[presence.UserID] = presence

	return rosterLocked(room)
}

// Remove deletes the entry for userID if present and returns the resulting
// roster. The room key itself is removed once its last entry goes.
func (r *Registry) Remove(roomKey, userID string) []core.Presence {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomKey]
	if room == nil {
		return nil
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(r.rooms, roomKey)
		return nil
	}
	return rosterLocked(room)
}

// Roster returns a snapshot of the room's presences. Unknown rooms yield an
// empty roster, never an error.
func (r *Registry) Roster(roomKey string) []core.Presence {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return rosterLocked(r.rooms[roomKey])
}

// RoomKeys enumerates the keys of all rooms that currently have members.
func (r *Registry) RoomKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.rooms))
	for key := range r.rooms {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MemberCounts returns the number of presences per active room.
func (r *Registry) MemberCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.rooms))
	for key, room := range r.rooms {
		counts[key] = len(room)
	}
	return counts
}

// SweepExpired removes every presence whose LastSeenAt is older than
// now - ttl, across all rooms. Rooms left empty are evicted. Returns the
// keys of rooms that were evicted by this sweep.
func (r *Registry) SweepExpired(now time.Time, ttl time.Duration) []string {
	cutoff := now.Add(-ttl).UnixMilli()

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for key, room := range r.rooms {
		for userID, p := range room {
			if p.LastSeenAt < cutoff {
				logrus.WithFields(logrus.Fields{
					"room_key": key,
					"user_id":  userID,
				}).Debug("Sweeping expired presence")
				delete(room, userID)
			}
		}
		if len(room) == 0 {
			delete(r.rooms, key)
			evicted = append(evicted, key)
		}
	}
	return evicted
}

func rosterLocked(room map[string]core.Presence) []core.Presence {
	roster := make([]core.Presence, 0, len(room))
	for _, p := range room {
		roster = append(roster, p)
	}
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].UserID < roster[j].UserID
	})
	return roster
}
