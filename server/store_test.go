package server

import "testing"

func TestStore_SetGet(t *testing.T) {
	store := NewStore()

	if _, ok := store.Get("0x1", 1, onTimeAttributeId); ok {
		t.Error("Expected empty store to report no value")
	}

	store.Set("0x1", 1, onTimeAttributeId, int64(50))

	v, ok := store.Get("0x1", 1, onTimeAttributeId)
	if !ok {
		t.Fatal("Expected value after Set")
	}
	if v.(int64) != 50 {
		t.Errorf("Expected 50, got %v", v)
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	store := NewStore()
	store.Set("0x1", 1, onTimeAttributeId, int64(50))

	if _, ok := store.Get("0x2", 1, onTimeAttributeId); ok {
		t.Error("Different destination must not share state")
	}
	if _, ok := store.Get("0x1", 2, onTimeAttributeId); ok {
		t.Error("Different endpoint must not share state")
	}
	if _, ok := store.Get("0x1", 1, offWaitTimeAttributeId); ok {
		t.Error("Different attribute must not share state")
	}
}

func TestStore_OverwriteAndLen(t *testing.T) {
	store := NewStore()
	store.Set("0x1", 1, onTimeAttributeId, int64(30))
	store.Set("0x1", 1, onTimeAttributeId, int64(50))

	if store.Len() != 1 {
		t.Errorf("Expected 1 stored attribute, got %d", store.Len())
	}
	v, _ := store.Get("0x1", 1, onTimeAttributeId)
	if v.(int64) != 50 {
		t.Errorf("Expected overwritten value 50, got %v", v)
	}
}
