package collab

import (
	"errors"
	"testing"

	"collab-server/core"
)

func TestDecodeJoin_Valid(t *testing.T) {
	p, err := DecodeJoin(map[string]any{
		"userId":       "u1",
		"userName":     "Alice",
		"resourceType": "candidate",
		"resourceId":   "42",
	})
	if err != nil {
		t.Fatalf("DecodeJoin() failed: %v", err)
	}
	if p.UserID != "u1" || p.UserName != "Alice" || p.ResourceType != core.ResourceCandidate || p.ResourceID != "42" {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestDecodeJoin_MissingField(t *testing.T) {
	for _, missing := range []string{"userId", "userName", "resourceType", "resourceId"} {
		data := map[string]any{
			"userId":       "u1",
			"userName":     "Alice",
			"resourceType": "candidate",
			"resourceId":   "42",
		}
		delete(data, missing)

		if _, err := DecodeJoin(data); err == nil {
			t.Errorf("expected error with %q missing", missing)
		}
	}
}

func TestDecodeJoin_WrongFieldType(t *testing.T) {
	if _, err := DecodeJoin(map[string]any{
		"userId":       7,
		"userName":     "Alice",
		"resourceType": "candidate",
		"resourceId":   "42",
	}); err == nil {
		t.Error("expected error for non-string userId")
	}
}

func TestDecodeJoin_UnknownResourceType(t *testing.T) {
	_, err := DecodeJoin(map[string]any{
		"userId":       "u1",
		"userName":     "Alice",
		"resourceType": "invoice",
		"resourceId":   "42",
	})
	if !errors.Is(err, core.ErrInvalidResourceType) {
		t.Errorf("expected ErrInvalidResourceType, got %v", err)
	}
}

func TestDecodeFieldUpdate_NilValueAllowed(t *testing.T) {
	p, err := DecodeFieldUpdate(map[string]any{
		"userId":       "u1",
		"userName":     "Alice",
		"resourceType": "job",
		"resourceId":   "7",
		"field":        "salary",
	})
	if err != nil {
		t.Fatalf("DecodeFieldUpdate() failed: %v", err)
	}
	if p.Value != nil {
		t.Errorf("expected nil value for cleared field, got %v", p.Value)
	}
}

func TestDecodeStatusChange_Valid(t *testing.T) {
	p, err := DecodeStatusChange(map[string]any{
		"userId":       "u1",
		"userName":     "Alice",
		"resourceType": "candidate",
		"resourceId":   "42",
		"oldStatus":    "screening",
		"newStatus":    "interview",
	})
	if err != nil {
		t.Fatalf("DecodeStatusChange() failed: %v", err)
	}
	if p.OldStatus != "screening" || p.NewStatus != "interview" {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestDecodeTyping_MissingField(t *testing.T) {
	if _, err := DecodeTyping(map[string]any{
		"userId":       "u1",
		"userName":     "Alice",
		"resourceType": "candidate",
		"resourceId":   "42",
	}); err == nil {
		t.Error("expected error with field missing")
	}
}
