package core

import "testing"

func TestValidResourceType(t *testing.T) {
	for _, valid := range []ResourceType{ResourceCandidate, ResourceJob, ResourceDocument} {
		if !ValidResourceType(valid) {
			t.Errorf("expected %q to be valid", valid)
		}
	}
	for _, invalid := range []ResourceType{"", "invoice", "Candidate", "jobs"} {
		if ValidResourceType(invalid) {
			t.Errorf("expected %q to be invalid", invalid)
		}
	}
}

func TestRoomKey(t *testing.T) {
	if key := RoomKey(ResourceCandidate, "42"); key != "candidate:42" {
		t.Errorf("expected candidate:42, got %s", key)
	}
	if key := RoomKey(ResourceDocument, "offer-letter"); key != "document:offer-letter" {
		t.Errorf("expected document:offer-letter, got %s", key)
	}
}
