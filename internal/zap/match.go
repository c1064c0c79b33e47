// Package zap orchestrates the micropayment handshake: endpoint resolution,
// invoice retrieval, and correlation of the asynchronous receipt back to
// the request.
package zap

import (
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/tidwall/gjson"
)

// CorrelationKeys are the identifiers a candidate receipt can be matched
// against. Only RequestID is mandatory; the other keys widen the net when
// endpoints omit the description echo.
type CorrelationKeys struct {
	RequestID string // id of the signed zap request
	Invoice   string // bolt11 string returned by the endpoint
	Address   string // originating address coordinate ("kind:pubkey:dTag")
	EventID   string // originating event id
}

// matchRule is one strategy for binding a receipt to a request. Rules are
// independent and evaluated in priority order, strongest binding first.
type matchRule struct {
	name  string
	match func(ev *nostr.Event, keys CorrelationKeys) bool
}

var matchRules = []matchRule{
	{
		// The receipt's description tag echoes the zap request JSON; its id
		// is the strongest possible binding.
		name: "description",
		match: func(ev *nostr.Event, keys CorrelationKeys) bool {
			desc := firstTagValue(ev, "description")
			if desc == "" || !gjson.Valid(desc) {
				return false
			}
			return gjson.Get(desc, "id").String() == keys.RequestID
		},
	},
	{
		name: "bolt11",
		match: func(ev *nostr.Event, keys CorrelationKeys) bool {
			if keys.Invoice == "" {
				return false
			}
			b := firstTagValue(ev, "bolt11")
			return b != "" && strings.EqualFold(b, keys.Invoice)
		},
	},
	{
		name: "address",
		match: func(ev *nostr.Event, keys CorrelationKeys) bool {
			return keys.Address != "" && hasTagValue(ev, "a", keys.Address)
		},
	},
	{
		name: "event",
		match: func(ev *nostr.Event, keys CorrelationKeys) bool {
			return keys.EventID != "" && hasTagValue(ev, "e", keys.EventID)
		},
	},
}

// MatchReceipt evaluates the ordered match rules against a candidate
// receipt, returning the name of the first rule that bound it.
func MatchReceipt(ev *nostr.Event, keys CorrelationKeys) (rule string, ok bool) {
	for _, r := range matchRules {
		if r.match(ev, keys) {
			return r.name, true
		}
	}
	return "", false
}

func firstTagValue(ev *nostr.Event, name string) string {
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1]
		}
	}
	return ""
}

func hasTagValue(ev *nostr.Event, name, value string) bool {
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == name && tag[1] == value {
			return true
		}
	}
	return false
}
