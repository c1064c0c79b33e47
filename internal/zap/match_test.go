package zap

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
)

func matchKeys() CorrelationKeys {
	return CorrelationKeys{
		RequestID: "req-id",
		Invoice:   "lnbc210n1pexample",
		Address:   "32267:pk:com.example.app",
		EventID:   "app-event",
	}
}

func TestMatchReceiptByDescription(t *testing.T) {
	t.Parallel()
	ev := &nostr.Event{Tags: nostr.Tags{
		{"description", `{"id":"req-id","kind":9734}`},
	}}
	rule, ok := MatchReceipt(ev, matchKeys())
	assert.True(t, ok)
	assert.Equal(t, "description", rule)
}

func TestMatchReceiptDescriptionOutranksWeakerRules(t *testing.T) {
	t.Parallel()
	// Every rule could bind; the strongest one must be reported.
	ev := &nostr.Event{Tags: nostr.Tags{
		{"bolt11", "lnbc210n1pexample"},
		{"a", "32267:pk:com.example.app"},
		{"e", "app-event"},
		{"description", `{"id":"req-id"}`},
	}}
	rule, ok := MatchReceipt(ev, matchKeys())
	assert.True(t, ok)
	assert.Equal(t, "description", rule)
}

func TestMatchReceiptByInvoiceCaseInsensitive(t *testing.T) {
	t.Parallel()
	ev := &nostr.Event{Tags: nostr.Tags{
		{"bolt11", "LNBC210N1PEXAMPLE"},
	}}
	rule, ok := MatchReceipt(ev, matchKeys())
	assert.True(t, ok)
	assert.Equal(t, "bolt11", rule)
}

func TestMatchReceiptByAddressAndEvent(t *testing.T) {
	t.Parallel()
	addr := &nostr.Event{Tags: nostr.Tags{{"a", "32267:pk:com.example.app"}}}
	rule, ok := MatchReceipt(addr, matchKeys())
	assert.True(t, ok)
	assert.Equal(t, "address", rule)

	evRef := &nostr.Event{Tags: nostr.Tags{{"e", "app-event"}}}
	rule, ok = MatchReceipt(evRef, matchKeys())
	assert.True(t, ok)
	assert.Equal(t, "event", rule)
}

func TestMatchReceiptForeignReceipt(t *testing.T) {
	t.Parallel()
	ev := &nostr.Event{Tags: nostr.Tags{
		{"description", `{"id":"someone-elses-request"}`},
		{"bolt11", "lnbc1other"},
		{"a", "32267:pk:another.app"},
		{"e", "other-event"},
	}}
	_, ok := MatchReceipt(ev, matchKeys())
	assert.False(t, ok)
}

func TestMatchReceiptSkipsMissingKeys(t *testing.T) {
	t.Parallel()
	// With only the request id available, receipts carrying an empty
	// bolt11 or unrelated tags must not bind.
	keys := CorrelationKeys{RequestID: "req-id"}
	ev := &nostr.Event{Tags: nostr.Tags{
		{"bolt11", ""},
		{"a", ""},
		{"e", ""},
	}}
	_, ok := MatchReceipt(ev, keys)
	assert.False(t, ok)
}

func TestMatchReceiptMalformedDescription(t *testing.T) {
	t.Parallel()
	ev := &nostr.Event{Tags: nostr.Tags{
		{"description", "not json"},
	}}
	_, ok := MatchReceipt(ev, matchKeys())
	assert.False(t, ok)
}
