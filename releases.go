package zapstore

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/zapstore/zapstore-go/internal/events"
	"github.com/zapstore/zapstore-go/internal/types"
)

// FetchLatestRelease returns the newest release for an app, consulting
// the cache unless skipCache is set. Returns nil when no release could
// be found in time.
func (c *Client) FetchLatestRelease(ctx context.Context, app App, skipCache bool) *Release {
	if app.PubKey == "" || app.DTag == "" {
		return nil
	}
	key := app.PubKey + ":" + app.DTag
	if c.cache != nil && !skipCache {
		var cached Release
		if ok, err := c.cache.Get(ctx, KindRelease, key, &cached); err != nil {
			c.log.Warn().Err(err).Str("app", key).Msg("release cache read failed")
		} else if ok {
			cacheHitsTotal.WithLabelValues("release").Inc()
			return &cached
		}
	}
	fetchesTotal.WithLabelValues("release").Inc()
	filter := nostr.Filter{
		Kinds:   []int{types.KindRelease},
		Authors: []string{app.PubKey},
		Tags:    nostr.TagMap{"a": []string{app.Address().String()}},
		Limit:   5,
	}
	evs := events.DedupSortEvents(c.agg.FetchAll(ctx, c.relays.Catalog, filter, c.fetchTimeout))
	if len(evs) == 0 {
		return nil
	}
	rel := c.norm.ParseRelease(evs[0])
	fetchedEventsTotal.WithLabelValues("release").Inc()
	if c.cache != nil {
		if err := c.cache.Put(ctx, KindRelease, key, rel); err != nil {
			c.log.Warn().Err(err).Str("app", key).Msg("release cache write failed")
		}
	}
	return &rel
}

// FetchFileMetadata resolves file-metadata events by id, answering from
// the cache where possible and fetching only the misses in one query.
// The result keeps the order of ids; unresolvable ids are skipped.
func (c *Client) FetchFileMetadata(ctx context.Context, ids []string) []FileMetadata {
	if len(ids) == 0 {
		return nil
	}
	byID := make(map[string]FileMetadata, len(ids))
	var missing []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if c.cache != nil {
			var cached FileMetadata
			if ok, err := c.cache.Get(ctx, KindFileMetadata, id, &cached); err != nil {
				c.log.Warn().Err(err).Str("id", id).Msg("file metadata cache read failed")
			} else if ok {
				cacheHitsTotal.WithLabelValues("file_metadata").Inc()
				byID[id] = cached
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		fetchesTotal.WithLabelValues("file_metadata").Inc()
		filter := nostr.Filter{
			Kinds: []int{types.KindFileMetadata},
			IDs:   missing,
			Limit: len(missing),
		}
		evs := events.DedupSortEvents(c.agg.FetchAll(ctx, c.relays.Catalog, filter, c.fetchTimeout))
		for _, ev := range evs {
			fm := c.norm.ParseFileMetadata(ev)
			byID[fm.ID] = fm
			if c.cache != nil {
				if err := c.cache.Put(ctx, KindFileMetadata, fm.ID, fm); err != nil {
					c.log.Warn().Err(err).Str("id", fm.ID).Msg("file metadata cache write failed")
				}
			}
		}
		fetchedEventsTotal.WithLabelValues("file_metadata").Add(float64(len(evs)))
	}
	out := make([]FileMetadata, 0, len(byID))
	for _, id := range ids {
		if fm, ok := byID[id]; ok {
			out = append(out, fm)
		}
	}
	return out
}

// FetchAppVersion returns the version string of an app's newest release
// artifact, or "" when it cannot be determined in time.
func (c *Client) FetchAppVersion(ctx context.Context, app App) string {
	rel := c.FetchLatestRelease(ctx, app, false)
	if rel == nil || len(rel.EventRefs) == 0 {
		return ""
	}
	for _, fm := range c.FetchFileMetadata(ctx, rel.EventRefs) {
		if fm.Version != "" {
			return fm.Version
		}
	}
	return ""
}
