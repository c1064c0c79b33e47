package events

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
)

func TestDedupSortEventsFirstSeenWins(t *testing.T) {
	t.Parallel()
	first := &nostr.Event{ID: "dup", Content: "from relay A", CreatedAt: 100}
	second := &nostr.Event{ID: "dup", Content: "from relay B", CreatedAt: 100}
	other := &nostr.Event{ID: "other", CreatedAt: 200}

	out := DedupSortEvents([]*nostr.Event{first, second, other})
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].ID != "other" {
		t.Fatalf("out[0].ID = %q, want newest first", out[0].ID)
	}
	if out[1].Content != "from relay A" {
		t.Fatalf("duplicate resolution kept %q, want first arrival", out[1].Content)
	}
}

func TestDedupSortEventsStableForEqualTimestamps(t *testing.T) {
	t.Parallel()
	evs := []*nostr.Event{
		{ID: "a", CreatedAt: 50},
		{ID: "b", CreatedAt: 50},
		{ID: "c", CreatedAt: 50},
	}
	out := DedupSortEvents(evs)
	for i, want := range []string{"a", "b", "c"} {
		if out[i].ID != want {
			t.Fatalf("out[%d].ID = %q, want arrival order preserved", i, out[i].ID)
		}
	}
}

func TestDedupSortEventsIdempotent(t *testing.T) {
	t.Parallel()
	evs := []*nostr.Event{
		{ID: "a", CreatedAt: 10},
		{ID: "b", CreatedAt: 30},
		{ID: "a", CreatedAt: 10},
	}
	once := DedupSortEvents(evs)
	twice := DedupSortEvents(once)
	if len(once) != len(twice) {
		t.Fatalf("second pass changed length: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("second pass reordered index %d", i)
		}
	}
}

func TestDedupSortEmpty(t *testing.T) {
	t.Parallel()
	if out := DedupSortEvents(nil); len(out) != 0 {
		t.Fatalf("out = %v, want empty", out)
	}
}
