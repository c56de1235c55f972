package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"collab-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Keep the in-memory join audit bounded; oldest rows are discarded first.
const maxJoinsPerRoom = 100

type activityStore struct {
	mu    sync.RWMutex
	rooms map[string]int64            // roomKey -> last active unix millis
	joins map[string][]core.JoinEvent // roomKey -> join audit, oldest first
}

func NewActivityStore() core.ActivityStore {
	return &activityStore{
		rooms: make(map[string]int64),
		joins: make(map[string][]core.JoinEvent),
	}
}

func (s *activityStore) TouchRoom(ctx context.Context, roomKey string) error {
	if roomKey == "" {
		return fmt.Errorf("room key is required")
	}

	s.mu.Lock()
	s.rooms[roomKey] = time.Now().UnixMilli()
	s.mu.Unlock()

	return nil
}

func (s *activityStore) DeleteRoom(ctx context.Context, roomKey string) error {
	if roomKey == "" {
		return fmt.Errorf("room key is required")
	}

	s.mu.Lock()
	delete(s.rooms, roomKey)
	delete(s.joins, roomKey)
	s.mu.Unlock()

	return nil
}

func (s *activityStore) ListRooms(ctx context.Context) ([]core.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]core.Room, 0, len(s.rooms))
	for key, last := range s.rooms {
		rooms = append(rooms, core.Room{Key: key, LastActive: last})
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].LastActive == rooms[j].LastActive {
			return rooms[i].Key < rooms[j].Key
		}
		return rooms[i].LastActive > rooms[j].LastActive
	})

	return rooms, nil
}

func (s *activityStore) RecordJoin(ctx context.Context, roomKey, userID string) (string, error) {
	if roomKey == "" || userID == "" {
		return "", fmt.Errorf("room key and user id are required")
	}

	id := ulid.Make().String()
	event := core.JoinEvent{
		ID:       id,
		RoomKey:  roomKey,
		UserID:   userID,
		JoinedAt: time.Now().UnixMilli(),
	}

	s.mu.Lock()
	joins := append(s.joins[roomKey], event)
	if len(joins) > maxJoinsPerRoom {
		joins = joins[len(joins)-maxJoinsPerRoom:]
	}
	s.joins[roomKey] = joins
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"join_id":  id,
		"room_key": roomKey,
		"user_id":  userID,
	}).Debug("Join recorded")

	return id, nil
}

func (s *activityStore) ListJoins(ctx context.Context, roomKey string) ([]core.JoinEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	joins := s.joins[roomKey]
	// Newest first, matching the sqlite store's ordering.
	out := make([]core.JoinEvent, 0, len(joins))
	for i := len(joins) - 1; i >= 0; i-- {
		out = append(out, joins[i])
	}
	return out, nil
}
