package objectstore

import (
	"testing"
)

func TestWriteThenReadJSON(t *testing.T) {
	h := New(t.TempDir())
	key := h.ResolveOutputKey("mouse", "p1", "latest", "candidates.json")

	type payload struct {
		Field string `json:"field"`
	}
	data := []byte(`{"field":"weight_g"}`)
	if err := h.WriteObject(key, data, "application/json"); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got payload
	if err := h.ReadJSON(key, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Field != "weight_g" {
		t.Fatalf("unexpected decoded payload: %+v", got)
	}
}

func TestReadJSONOrNullMissingKey(t *testing.T) {
	h := New(t.TempDir())
	var v map[string]any
	ok, err := h.ReadJSONOrNull("nope.json", &v)
	if err != nil {
		t.Fatalf("expected missing key to not error, got %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a missing key")
	}
}

func TestReadJSONMissingKeyErrors(t *testing.T) {
	h := New(t.TempDir())
	var v map[string]any
	if err := h.ReadJSON("nope.json", &v); err == nil {
		t.Fatalf("expected ReadJSON to error on a missing key")
	}
}

func TestListInputKeysMissingCategoryIsEmpty(t *testing.T) {
	h := New(t.TempDir())
	keys, err := h.ListInputKeys("nonexistent")
	if err != nil {
		t.Fatalf("expected missing category to not error, got %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}

func TestListInputKeysWalksCategory(t *testing.T) {
	h := New(t.TempDir())
	h.WriteObject("mouse/_generated/component_db/sensor.json", []byte("{}"), "application/json")
	h.WriteObject("mouse/p1/latest/candidates.json", []byte("{}"), "application/json")

	keys, err := h.ListInputKeys("mouse")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
}
