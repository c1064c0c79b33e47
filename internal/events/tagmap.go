// Package events normalizes raw Nostr events into the typed domain records
// of the catalog: apps, releases, file metadata, zap receipts, comments,
// app stacks and profiles. All parsers are total; malformed input yields a
// best-effort record, never an error.
package events

import (
	"github.com/nbd-wtf/go-nostr"
)

// repeatable lists the tag names whose every occurrence is collected, in
// order, instead of only the first: image references, address references
// and event references.
var repeatable = map[string]struct{}{
	"image": {},
	"a":     {},
	"e":     {},
}

// TagMap indexes an event's tags by name. Lookups are case-sensitive ("a"
// and "A" are distinct names). For non-repeatable names the first
// occurrence wins; repeatable names accumulate an ordered list.
type TagMap struct {
	first map[string]string
	lists map[string][]string
}

// NewTagMap builds a TagMap from raw tags. Tags shorter than two elements
// carry no value and are skipped.
func NewTagMap(tags nostr.Tags) TagMap {
	m := TagMap{
		first: make(map[string]string, len(tags)),
		lists: make(map[string][]string),
	}
	for _, tag := range tags {
		if len(tag) < 2 {
			continue
		}
		name, value := tag[0], tag[1]
		if _, ok := repeatable[name]; ok {
			m.lists[name] = append(m.lists[name], value)
		}
		if _, ok := m.first[name]; !ok {
			m.first[name] = value
		}
	}
	return m
}

// Get returns the first value recorded for name, or "".
func (m TagMap) Get(name string) string { return m.first[name] }

// List returns every value recorded for a repeatable name, in tag order.
func (m TagMap) List(name string) []string { return m.lists[name] }
