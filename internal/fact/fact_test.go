package fact

import (
	"strings"
	"testing"
)

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds {
		if !k.Valid() {
			t.Errorf("Kind(%q).Valid() = false, want true", k)
		}
	}
	if Kind("entity_deleted").Valid() {
		t.Error("unknown kind reported valid")
	}
}

func TestEncodePayload_CanonicalBytes(t *testing.T) {
	p := EntityCreatedPayload{
		EntityID:   "alice",
		EntityKind: "person",
		Name:       "Alice Smith",
		Attrs:      map[string]string{"role": "analyst", "clearance": "high"},
		ValidFrom:  100,
	}

	first, err := EncodePayload(p)
	if err != nil {
		t.Fatalf("EncodePayload() failed: %v", err)
	}

	// Keys must come out sorted regardless of map iteration order.
	want := `{"attrs":{"clearance":"high","role":"analyst"},"entity_id":"alice","entity_kind":"person","name":"Alice Smith","valid_from":100}`
	if string(first) != want {
		t.Errorf("got %s\nwant %s", first, want)
	}

	for i := 0; i < 5; i++ {
		again, err := EncodePayload(p)
		if err != nil {
			t.Fatalf("EncodePayload() iteration %d failed: %v", i, err)
		}
		if string(again) != string(first) {
			t.Fatalf("encoding is not deterministic: %s vs %s", again, first)
		}
	}
}

func TestEncodePayload_OpenIntervalOmitsValidTo(t *testing.T) {
	open := RelationshipCreatedPayload{
		RelID:     "r1",
		SourceID:  "alice",
		TargetID:  "acme",
		RelType:   "works_at",
		Directed:  true,
		ValidFrom: 100,
	}
	data, err := EncodePayload(open)
	if err != nil {
		t.Fatalf("EncodePayload() failed: %v", err)
	}
	if strings.Contains(string(data), "valid_to") {
		t.Errorf("open interval must not serialize valid_to: %s", data)
	}

	to := int64(200)
	closed := open
	closed.ValidTo = &to
	data, err = EncodePayload(closed)
	if err != nil {
		t.Fatalf("EncodePayload() failed: %v", err)
	}
	if !strings.Contains(string(data), `"valid_to":200`) {
		t.Errorf("closed interval must serialize valid_to: %s", data)
	}
}

func TestDecodePayload_RoundTripsEachKind(t *testing.T) {
	to := int64(250)
	payloads := []Payload{
		EntityCreatedPayload{EntityID: "e1", EntityKind: "person", Name: "N", ValidFrom: 1},
		EntityVersionedPayload{EntityID: "e1", Attrs: map[string]string{"k": "v"}, ValidFrom: 2},
		RelationshipCreatedPayload{RelID: "r1", SourceID: "e1", TargetID: "e2", RelType: "knows", ValidFrom: 3, ValidTo: &to},
		RelationshipEndedPayload{RelID: "r1", ValidTo: 4},
		RelationshipAttributeChangedPayload{RelID: "r1", Attrs: map[string]string{"w": "1"}},
	}

	for _, p := range payloads {
		data, err := EncodePayload(p)
		if err != nil {
			t.Fatalf("EncodePayload(%s) failed: %v", p.FactKind(), err)
		}
		got, err := DecodePayload(p.FactKind(), data)
		if err != nil {
			t.Fatalf("DecodePayload(%s) failed: %v", p.FactKind(), err)
		}
		if got.FactKind() != p.FactKind() {
			t.Errorf("round trip changed kind: %s -> %s", p.FactKind(), got.FactKind())
		}
	}
}

func TestDecodePayload_UnknownKind(t *testing.T) {
	if _, err := DecodePayload(Kind("bogus"), []byte(`{}`)); err == nil {
		t.Error("expected error for unknown kind, got nil")
	}
}
