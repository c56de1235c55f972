package sqlite

import (
	"context"
	"fmt"
	"time"

	"database/sql"
	stdlog "log"

	"collab-server/core"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type activityStore struct {
	db *sql.DB
}

func NewActivityStore(dataSourceName string) core.ActivityStore {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		stdlog.Fatal(err)
	}

	rooms := `CREATE TABLE IF NOT EXISTS rooms (
		room_key TEXT PRIMARY KEY,
		last_active INTEGER NOT NULL
	);`
	_, err = db.Exec(rooms)
	if err != nil {
		stdlog.Fatal(err)
	}

	joins := `CREATE TABLE IF NOT EXISTS join_events (
		id TEXT PRIMARY KEY,
		room_key TEXT NOT NULL,
		user_id TEXT NOT NULL,
		joined_at INTEGER NOT NULL
	);`
	_, err = db.Exec(joins)
	if err != nil {
		stdlog.Fatal(err)
	}

	return &activityStore{db}
}

func (s *activityStore) TouchRoom(ctx context.Context, roomKey string) error {
	if roomKey == "" {
		return fmt.Errorf("room key is required")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO rooms (room_key, last_active) VALUES (?, ?) ON CONFLICT(room_key) DO UPDATE SET last_active = ?",
		roomKey, time.Now().UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		logrus.WithField("room_key", roomKey).WithError(err).Error("Failed to touch room")
		return err
	}
	return nil
}

func (s *activityStore) DeleteRoom(ctx context.Context, roomKey string) error {
	if roomKey == "" {
		return fmt.Errorf("room key is required")
	}

	log := logrus.WithField("room_key", roomKey)

	if _, err := s.db.ExecContext(ctx, "DELETE FROM rooms WHERE room_key = ?", roomKey); err != nil {
		log.WithError(err).Error("Failed to delete room")
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM join_events WHERE room_key = ?", roomKey); err != nil {
		log.WithError(err).Error("Failed to delete room join audit")
		return err
	}

	log.Debug("Room activity deleted")
	return nil
}

func (s *activityStore) ListRooms(ctx context.Context) ([]core.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT room_key, last_active FROM rooms ORDER BY last_active DESC, room_key ASC")
	if err != nil {
		logrus.WithError(err).Error("Failed to list rooms")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close room rows")
		}
	}()

	var rooms []core.Room
	for rows.Next() {
		var room core.Room
		if err := rows.Scan(&room.Key, &room.LastActive); err != nil {
			logrus.WithError(err).Error("Failed to scan room")
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *activityStore) RecordJoin(ctx context.Context, roomKey, userID string) (string, error) {
	if roomKey == "" || userID == "" {
		return "", fmt.Errorf("room key and user id are required")
	}

	id := ulid.Make().String()
	joinedAt := time.Now().UnixMilli()

	log := logrus.WithFields(logrus.Fields{
		"join_id":  id,
		"room_key": roomKey,
		"user_id":  userID,
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO join_events (id, room_key, user_id, joined_at) VALUES (?, ?, ?, ?)",
		id, roomKey, userID, joinedAt)
	if err != nil {
		log.WithError(err).Error("Failed to record join")
		return "", err
	}

	log.Debug("Join recorded")
	return id, nil
}

func (s *activityStore) ListJoins(ctx context.Context, roomKey string) ([]core.JoinEvent, error) {
	log := logrus.WithField("room_key", roomKey)

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, room_key, user_id, joined_at FROM join_events WHERE room_key = ? ORDER BY joined_at DESC, id DESC LIMIT 100",
		roomKey)
	if err != nil {
		log.WithError(err).Error("Failed to list joins")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close join rows")
		}
	}()

	var joins []core.JoinEvent
	for rows.Next() {
		var event core.JoinEvent
		if err := rows.Scan(&event.ID, &event.RoomKey, &event.UserID, &event.JoinedAt); err != nil {
			log.WithError(err).Error("Failed to scan join event")
			continue
		}
		joins = append(joins, event)
	}
	return joins, rows.Err()
}
