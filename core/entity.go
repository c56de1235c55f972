package core

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidResourceType = errors.New("invalid resource type")

type (
	// ResourceType identifies which kind of record a room is attached to.
	ResourceType string

	// Presence describes one user currently viewing a room. Identity is
	// caller-supplied and not verified here.
	Presence struct {
		UserID       string       `json:"userId"`
		UserName     string       `json:"userName"`
		ResourceType ResourceType `json:"resourceType"`
		ResourceID   string       `json:"resourceId"`
		LastSeenAt   int64        `json:"lastSeenAt"` // unix millis
	}

	// Room is the introspection view of one active room.
	Room struct {
		Key        string
		LastActive int64
	}

	// JoinEvent is one audit row recorded when a user joins a room.
	JoinEvent struct {
		ID       string `json:"id"`
		RoomKey  string `json:"roomKey"`
		UserID   string `json:"userId"`
		JoinedAt int64  `json:"joinedAt"`
	}

	// ActivityStore records room activity for the introspection API.
	// It holds history and timestamps only; presence itself is never
	// persisted or restored from it.
	ActivityStore interface {
		TouchRoom(ctx context.Context, roomKey string) error
		DeleteRoom(ctx context.Context, roomKey string) error
		ListRooms(ctx context.Context) ([]Room, error)
		RecordJoin(ctx context.Context, roomKey, userID string) (string, error)
		ListJoins(ctx context.Context, roomKey string) ([]JoinEvent, error)
	}
)

const (
	ResourceCandidate ResourceType = "candidate"
	ResourceJob       ResourceType = "job"
	ResourceDocument  ResourceType = "document"
)

// ValidResourceType reports whether t belongs to the known set.
func ValidResourceType(t ResourceType) bool {
	switch t {
	case ResourceCandidate, ResourceJob, ResourceDocument:
		return true
	}
	return false
}

// RoomKey composes the room identifier for a resource. Key uniqueness is
// purely structural; rooms are never pre-declared.
func RoomKey(t ResourceType, resourceID string) string {
	return fmt.Sprintf("%s:%s", t, resourceID)
}
