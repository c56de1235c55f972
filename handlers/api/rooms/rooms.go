package rooms

import (
	"net/http"
	"sort"

	"collab-server/collab"
	"collab-server/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type RoomEntry struct {
	Key        string `json:"key"`
	Users      int    `json:"users"`
	LastActive *int64 `json:"lastActive,omitempty"`
}

// HandleList lists every active room with its member count, merged with the
// last-active timestamps the activity store has on record.
func HandleList(registry *collab.Registry, store core.ActivityStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomMap := make(map[string]*RoomEntry)
		for key, count := range registry.MemberCounts() {
			roomMap[key] = &RoomEntry{Key: key, Users: count}
		}

		if store != nil {
			storedRooms, err := store.ListRooms(r.Context())
			if err != nil {
				logrus.WithError(err).Warn("failed to list rooms from activity store")
			} else {
				for _, room := range storedRooms {
					entry, exists := roomMap[room.Key]
					if !exists {
						entry = &RoomEntry{Key: room.Key}
						roomMap[room.Key] = entry
					}
					if room.LastActive > 0 {
						lastActive := room.LastActive
						entry.LastActive = &lastActive
					}
				}
			}
		}

		roomList := make([]RoomEntry, 0, len(roomMap))
		for _, entry := range roomMap {
			roomList = append(roomList, *entry)
		}

		sort.Slice(roomList, func(i, j int) bool {
			if roomList[i].Users == roomList[j].Users {
				li := int64(0)
				if roomList[i].LastActive != nil {
					li = *roomList[i].LastActive
				}
				lj := int64(0)
				if roomList[j].LastActive != nil {
					lj = *roomList[j].LastActive
				}
				if li == lj {
					return roomList[i].Key < roomList[j].Key
				}
				return li > lj
			}
			return roomList[i].Users > roomList[j].Users
		})

		render.JSON(w, r, roomList)
	}
}

// HandleListJoins lists the recent join audit rows of a room, newest first.
func HandleListJoins(store core.ActivityStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomKey := chi.URLParam(r, "roomKey")

		joins, err := store.ListJoins(r.Context(), roomKey)
		if err != nil {
			logrus.WithField("room_key", roomKey).WithError(err).Error("Failed to list joins")
			http.Error(w, "Failed to list joins", http.StatusInternalServerError)
			return
		}
		if joins == nil {
			joins = []core.JoinEvent{}
		}

		render.JSON(w, r, joins)
	}
}

// HandleRoster returns the live roster of a room. Unknown rooms yield an
// empty roster, never an error.
func HandleRoster(registry *collab.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomKey := chi.URLParam(r, "roomKey")
		render.JSON(w, r, registry.Roster(roomKey))
	}
}
