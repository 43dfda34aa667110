package ring

import (
	"errors"
	"testing"
)

func TestRing_EmptyRing(t *testing.T) {
	r := New(128)

	_, err := r.Get("any-key")
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("Get on empty ring: got %v, want ErrEmpty", err)
	}
}

func TestRing_AddNode_Duplicate(t *testing.T) {
	r := New(128)

	if err := r.AddNode("shard1"); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	err := r.AddNode("shard1")
	if !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate AddNode: got %v, want ErrDuplicateNode", err)
	}
}

func TestRing_RemoveNode_Unknown(t *testing.T) {
	r := New(128)

	err := r.RemoveNode("ghost")
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("RemoveNode on unknown shard: got %v, want ErrUnknownNode", err)
	}
}

func TestRing_SingleNodeOwnsEverything(t *testing.T) {
	r := New(128)
	if err := r.AddNode("only"); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	for _, key := range []string{"a", "user:123", "u1:o5", ""} {
		owner, err := r.Get(key)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", key, err)
		}
		if owner != "only" {
			t.Errorf("Get(%q) = %s, want only", key, owner)
		}
	}
}

func TestRing_RemoveAllNodes_EmptiesRing(t *testing.T) {
	r := New(64)
	for _, name := range []string{"a", "b", "c"} {
		if err := r.AddNode(name); err != nil {
			t.Fatalf("AddNode(%s) failed: %v", name, err)
		}
	}
	for _, name := range []string{"a", "b", "c"} {
		if err := r.RemoveNode(name); err != nil {
			t.Fatalf("RemoveNode(%s) failed: %v", name, err)
		}
	}

	if n := r.VirtualNodes(); n != 0 {
		t.Errorf("VirtualNodes after removing all shards = %d, want 0", n)
	}
	if _, err := r.Get("key"); !errors.Is(err, ErrEmpty) {
		t.Errorf("Get after removing all shards: got %v, want ErrEmpty", err)
	}
}

func TestRing_VirtualNodeCount(t *testing.T) {
	r := New(100)
	r.AddNode("a")
	r.AddNode("b")

	if n := r.VirtualNodes(); n != 200 {
		t.Errorf("VirtualNodes = %d, want 200", n)
	}
}

func TestRing_Nodes_Sorted(t *testing.T) {
	r := New(16)
	for _, name := range []string{"c", "a", "b"} {
		if err := r.AddNode(name); err != nil {
			t.Fatalf("AddNode(%s) failed: %v", name, err)
		}
	}

	got := r.Nodes()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Nodes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Nodes[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRing_Contains(t *testing.T) {
	r := New(16)
	r.AddNode("a")

	if !r.Contains("a") {
		t.Error("Contains(a) = false, want true")
	}
	if r.Contains("b") {
		t.Error("Contains(b) = true, want false")
	}
}
