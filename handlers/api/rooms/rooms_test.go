package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"collab-server/collab"
	"collab-server/core"
	"collab-server/stores/memory"

	"github.com/go-chi/chi/v5"
)

type failingStore struct{}

func (failingStore) TouchRoom(ctx context.Context, roomKey string) error  { return nil }
func (failingStore) DeleteRoom(ctx context.Context, roomKey string) error { return nil }
func (failingStore) ListRooms(ctx context.Context) ([]core.Room, error) {
	return nil, errors.New("store unavailable")
}
func (failingStore) RecordJoin(ctx context.Context, roomKey, userID string) (string, error) {
	return "", errors.New("store unavailable")
}
func (failingStore) ListJoins(ctx context.Context, roomKey string) ([]core.JoinEvent, error) {
	return nil, errors.New("store unavailable")
}

func newRouter(registry *collab.Registry, store core.ActivityStore) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/rooms", HandleList(registry, store))
	r.Route("/api/rooms/{roomKey}", func(r chi.Router) {
		r.Get("/roster", HandleRoster(registry))
		r.Get("/joins", HandleListJoins(store))
	})
	return r
}

func presence(userID string) core.Presence {
	return core.Presence{
		UserID:       userID,
		UserName:     userID,
		ResourceType: core.ResourceCandidate,
		ResourceID:   "42",
		LastSeenAt:   time.Now().UnixMilli(),
	}
}

func TestHandleList_ActiveRoomsWithCounts(t *testing.T) {
	registry := collab.NewRegistry()
	store := memory.NewActivityStore()

	registry.Upsert("candidate:42", presence("u1"))
	registry.Upsert("candidate:42", presence("u2"))
	registry.Upsert("job:7", presence("u3"))
	if err := store.TouchRoom(context.Background(), "candidate:42"); err != nil {
		t.Fatalf("TouchRoom() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	newRouter(registry, store).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var rooms []RoomEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	// Sorted by member count descending.
	if rooms[0].Key != "candidate:42" || rooms[0].Users != 2 {
		t.Errorf("unexpected first room %+v", rooms[0])
	}
	if rooms[0].LastActive == nil {
		t.Error("expected lastActive for touched room")
	}
	if rooms[1].Key != "job:7" || rooms[1].Users != 1 {
		t.Errorf("unexpected second room %+v", rooms[1])
	}
}

func TestHandleList_StoreFailureStillListsLiveRooms(t *testing.T) {
	registry := collab.NewRegistry()
	registry.Upsert("candidate:42", presence("u1"))

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	newRouter(registry, failingStore{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite store failure, got %d", rec.Code)
	}

	var rooms []RoomEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Key != "candidate:42" {
		t.Errorf("expected live room listed, got %v", rooms)
	}
}

func TestHandleRoster(t *testing.T) {
	registry := collab.NewRegistry()
	registry.Upsert("candidate:42", presence("u1"))

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/candidate:42/roster", nil)
	rec := httptest.NewRecorder()
	newRouter(registry, memory.NewActivityStore()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var roster []core.Presence
	if err := json.Unmarshal(rec.Body.Bytes(), &roster); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(roster) != 1 || roster[0].UserID != "u1" {
		t.Errorf("expected roster [u1], got %v", roster)
	}
}

func TestHandleRoster_UnknownRoom(t *testing.T) {
	registry := collab.NewRegistry()

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/job:404/roster", nil)
	rec := httptest.NewRecorder()
	newRouter(registry, memory.NewActivityStore()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown room, got %d", rec.Code)
	}
	var roster []core.Presence
	if err := json.Unmarshal(rec.Body.Bytes(), &roster); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(roster) != 0 {
		t.Errorf("expected empty roster, got %v", roster)
	}
}

func TestHandleListJoins(t *testing.T) {
	store := memory.NewActivityStore()
	if _, err := store.RecordJoin(context.Background(), "candidate:42", "u1"); err != nil {
		t.Fatalf("RecordJoin() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/candidate:42/joins", nil)
	rec := httptest.NewRecorder()
	newRouter(collab.NewRegistry(), store).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var joins []core.JoinEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &joins); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(joins) != 1 || joins[0].UserID != "u1" {
		t.Errorf("expected join audit for u1, got %v", joins)
	}
}

func TestHandleListJoins_StoreFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/candidate:42/joins", nil)
	rec := httptest.NewRecorder()
	newRouter(collab.NewRegistry(), failingStore{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on store failure, got %d", rec.Code)
	}
}
