package collab

import (
	"context"
	"testing"
	"time"
)

func TestSweep_EvictsSilentlyVanishedUser(t *testing.T) {
	m, registry := newTestManager(nil)
	sweeper := NewSweeper(registry, nil, time.Minute, time.Minute)
	c := newFakeConn()

	m.HandleJoin(c, joinPayload("u1", "Alice", "candidate", "42"))

	// Connection silently vanishes: no leave, no disconnect event. Two sweep
	// cycles later the entry and its sole-occupant room are gone.
	base := time.Now()
	sweeper.Sweep(context.Background(), base.Add(time.Minute))
	sweeper.Sweep(context.Background(), base.Add(2*time.Minute))

	if len(registry.Roster("candidate:42")) != 0 {
		t.Error("expected swept presence to be gone")
	}
	if keys := registry.RoomKeys(); len(keys) != 0 {
		t.Errorf("expected solely-occupied room evicted, got %v", keys)
	}
}

func TestSweep_DeletesEvictedRoomActivity(t *testing.T) {
	store := &recordingStore{}
	registry := NewRegistry()
	sweeper := NewSweeper(registry, store, time.Minute, time.Minute)

	now := time.Now()
	registry.Upsert("candidate:42", makePresence("u1", "Alice", now.Add(-2*time.Minute)))

	sweeper.Sweep(context.Background(), now)

	if len(store.deleted) != 1 || store.deleted[0] != "candidate:42" {
		t.Errorf("expected activity cleanup for swept room, got %v", store.deleted)
	}
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	registry := NewRegistry()
	sweeper := NewSweeper(registry, nil, time.Minute, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
