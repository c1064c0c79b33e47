package zapstore

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/zapstore/zapstore-go/internal/events"
	"github.com/zapstore/zapstore-go/internal/types"
)

// FetchAppZaps lists zap receipts addressed to an app's coordinate,
// newest first.
func (c *Client) FetchAppZaps(ctx context.Context, pubkey, dTag string) []ZapReceipt {
	if pubkey == "" || dTag == "" {
		return nil
	}
	fetchesTotal.WithLabelValues("zaps").Inc()
	filter := nostr.Filter{
		Kinds: []int{types.KindZapReceipt},
		Tags:  nostr.TagMap{"a": []string{types.AppAddress(pubkey, dTag).String()}},
		Limit: 100,
	}
	evs := events.DedupSortEvents(c.agg.FetchAll(ctx, c.relays.Social, filter, c.fetchTimeout))
	zaps := make([]ZapReceipt, 0, len(evs))
	for _, ev := range evs {
		zaps = append(zaps, c.norm.ParseZapReceipt(ev))
	}
	fetchedEventsTotal.WithLabelValues("zaps").Add(float64(len(zaps)))
	return zaps
}

// FetchAppAndFileZaps aggregates receipts that reference the app's
// coordinate, its event id, or any of its release artifact ids. Receipts
// merely addressed to the publisher without such a reference are
// excluded.
func (c *Client) FetchAppAndFileZaps(ctx context.Context, app App, fileIDs []string) ZapSummary {
	if app.PubKey == "" {
		return ZapSummary{}
	}
	cacheKey := app.PubKey + ":" + app.DTag
	if c.cache != nil {
		var cached ZapSummary
		if ok, err := c.cache.Get(ctx, KindZapReceipt, cacheKey, &cached); err != nil {
			c.log.Warn().Err(err).Str("app", cacheKey).Msg("zap cache read failed")
		} else if ok {
			cacheHitsTotal.WithLabelValues("zaps").Inc()
			return cached
		}
	}
	fetchesTotal.WithLabelValues("zaps").Inc()
	filter := nostr.Filter{
		Kinds: []int{types.KindZapReceipt},
		Tags:  nostr.TagMap{"p": []string{app.PubKey}},
		Limit: 200,
	}
	evs := events.DedupSortEvents(c.agg.FetchAll(ctx, c.relays.Social, filter, c.fetchTimeout))

	address := app.Address().String()
	ids := make(map[string]struct{}, len(fileIDs)+1)
	if app.ID != "" {
		ids[app.ID] = struct{}{}
	}
	for _, id := range fileIDs {
		if id != "" {
			ids[id] = struct{}{}
		}
	}

	summary := ZapSummary{Zaps: make([]ZapReceipt, 0, len(evs))}
	for _, ev := range evs {
		if !referencesApp(ev, address, ids) {
			continue
		}
		zap := c.norm.ParseZapReceipt(ev)
		summary.Zaps = append(summary.Zaps, zap)
		summary.TotalSats += zap.AmountSats
	}
	summary.Count = len(summary.Zaps)
	fetchedEventsTotal.WithLabelValues("zaps").Add(float64(summary.Count))
	if c.cache != nil {
		if err := c.cache.Put(ctx, KindZapReceipt, cacheKey, summary); err != nil {
			c.log.Warn().Err(err).Str("app", cacheKey).Msg("zap cache write failed")
		}
	}
	return summary
}

// referencesApp reports whether a receipt's a-tag matches the app
// coordinate or its e-tag names one of the known event ids.
func referencesApp(ev *nostr.Event, address string, ids map[string]struct{}) bool {
	for _, tag := range ev.Tags {
		if len(tag) < 2 {
			continue
		}
		switch tag[0] {
		case "a":
			if tag[1] == address {
				return true
			}
		case "e":
			if _, ok := ids[tag[1]]; ok {
				return true
			}
		}
	}
	return false
}
