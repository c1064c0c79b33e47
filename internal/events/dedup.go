package events

import (
	"sort"

	"github.com/nbd-wtf/go-nostr"
)

// DedupSort keeps the first-seen record per identity (arrival order wins),
// drops later duplicates, and orders the result by creation time, newest
// first. It is idempotent.
func DedupSort[T any](records []T, identity func(T) string, createdAt func(T) int64) []T {
	seen := make(map[string]struct{}, len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		id := identity(r)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(out[i]) > createdAt(out[j])
	})
	return out
}

// DedupSortEvents applies DedupSort to raw events ahead of normalization.
func DedupSortEvents(evs []*nostr.Event) []*nostr.Event {
	return DedupSort(evs,
		func(ev *nostr.Event) string { return ev.ID },
		func(ev *nostr.Event) int64 { return int64(ev.CreatedAt) },
	)
}
