package zapstore

import (
	"context"
	"strings"

	"github.com/nbd-wtf/go-nostr"

	"github.com/zapstore/zapstore-go/internal/events"
	"github.com/zapstore/zapstore-go/internal/types"
)

const defaultAppLimit = 12

// AppQuery narrows a catalog listing. The zero value lists the newest
// android-arm64-v8a apps.
type AppQuery struct {
	Limit    int      // max results per relay, default 12
	Authors  []string // publisher pubkeys
	DTags    []string // exact app identifiers
	Until    int64    // only events at or before this unix time
	Search   string   // NIP-50 search term, passed to relays that support it
	Platform string   // #f platform tag, default android-arm64-v8a
}

// FetchApps lists catalog apps matching q, newest first with duplicates
// collapsed. Relay failures and timeouts yield a shorter list, never an
// error.
func (c *Client) FetchApps(ctx context.Context, q AppQuery) []App {
	fetchesTotal.WithLabelValues("apps").Inc()
	limit := q.Limit
	if limit <= 0 {
		limit = defaultAppLimit
	}
	platform := q.Platform
	if platform == "" {
		platform = defaultPlatformTarget
	}
	filter := nostr.Filter{
		Kinds: []int{types.KindApp},
		Limit: limit,
		Tags:  nostr.TagMap{"f": []string{platform}},
	}
	if len(q.Authors) > 0 {
		filter.Authors = q.Authors
	}
	if len(q.DTags) > 0 {
		filter.Tags["d"] = q.DTags
	}
	if q.Until > 0 {
		until := nostr.Timestamp(q.Until)
		filter.Until = &until
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		filter.Search = term
	}

	evs := events.DedupSortEvents(c.agg.FetchAll(ctx, c.relays.Catalog, filter, c.fetchTimeout))
	apps := make([]App, 0, len(evs))
	for _, ev := range evs {
		apps = append(apps, c.norm.ParseApp(ev))
	}
	fetchedEventsTotal.WithLabelValues("apps").Add(float64(len(apps)))
	return apps
}

// FetchApp returns one app by publisher pubkey and identifier,
// consulting the cache first. Returns nil when it cannot be found in
// time.
func (c *Client) FetchApp(ctx context.Context, pubkey, dTag string) *App {
	if pubkey == "" || dTag == "" {
		return nil
	}
	key := pubkey + ":" + dTag
	if c.cache != nil {
		var cached App
		if ok, err := c.cache.Get(ctx, KindApp, key, &cached); err != nil {
			c.log.Warn().Err(err).Str("app", key).Msg("app cache read failed")
		} else if ok {
			cacheHitsTotal.WithLabelValues("app").Inc()
			return &cached
		}
	}
	fetchesTotal.WithLabelValues("app").Inc()
	filter := nostr.Filter{
		Kinds:   []int{types.KindApp},
		Authors: []string{pubkey},
		Tags:    nostr.TagMap{"d": []string{dTag}},
		Limit:   1,
	}
	ev := c.agg.FetchFirst(ctx, c.relays.Catalog, filter, c.fetchTimeout)
	if ev == nil {
		return nil
	}
	app := c.norm.ParseApp(ev)
	fetchedEventsTotal.WithLabelValues("app").Inc()
	if c.cache != nil {
		if err := c.cache.Put(ctx, KindApp, key, app); err != nil {
			c.log.Warn().Err(err).Str("app", key).Msg("app cache write failed")
		}
	}
	return &app
}

// FetchAppByDTag finds an app by identifier alone, for legacy links that
// carry no publisher. The newest matching event wins.
func (c *Client) FetchAppByDTag(ctx context.Context, dTag string) *App {
	if dTag == "" {
		return nil
	}
	fetchesTotal.WithLabelValues("app").Inc()
	filter := nostr.Filter{
		Kinds: []int{types.KindApp},
		Tags:  nostr.TagMap{"d": []string{dTag}},
		Limit: 10,
	}
	evs := events.DedupSortEvents(c.agg.FetchAll(ctx, c.relays.Catalog, filter, c.fetchTimeout))
	if len(evs) == 0 {
		return nil
	}
	app := c.norm.ParseApp(evs[0])
	fetchedEventsTotal.WithLabelValues("app").Inc()
	return &app
}

// AppSlug returns the canonical catalog slug (naddr form) for an app
// identified by publisher pubkey and identifier.
func AppSlug(pubkey, dTag string) string {
	return events.AppSlug(pubkey, dTag)
}

// ResolveAppSlug parses a catalog slug (naddr or legacy npub-identifier
// form) into the publisher pubkey and app identifier.
func ResolveAppSlug(slug string) (pubkey, dTag string, err error) {
	return events.ParseAppSlug(slug)
}

// FetchAppStacks lists curated app collections, newest first.
func (c *Client) FetchAppStacks(ctx context.Context, limit int, authors []string) []AppStack {
	fetchesTotal.WithLabelValues("stacks").Inc()
	if limit <= 0 {
		limit = defaultAppLimit
	}
	filter := nostr.Filter{
		Kinds: []int{types.KindAppStack},
		Limit: limit,
	}
	if len(authors) > 0 {
		filter.Authors = authors
	}
	evs := events.DedupSortEvents(c.agg.FetchAll(ctx, c.relays.Catalog, filter, c.fetchTimeout))
	stacks := make([]AppStack, 0, len(evs))
	for _, ev := range evs {
		stacks = append(stacks, c.norm.ParseAppStack(ev))
	}
	fetchedEventsTotal.WithLabelValues("stacks").Add(float64(len(stacks)))
	return stacks
}

// ResolveStackApps fetches the apps a stack references, preserving the
// stack's ordering. References that cannot be resolved are skipped.
func (c *Client) ResolveStackApps(ctx context.Context, stack AppStack) []App {
	if len(stack.AppRefs) == 0 {
		return nil
	}
	authors := make([]string, 0, len(stack.AppRefs))
	dTags := make([]string, 0, len(stack.AppRefs))
	for _, ref := range stack.AppRefs {
		authors = append(authors, ref.PubKey)
		dTags = append(dTags, ref.Identifier)
	}
	fetchesTotal.WithLabelValues("stack_apps").Inc()
	filter := nostr.Filter{
		Kinds:   []int{types.KindApp},
		Authors: authors,
		Tags:    nostr.TagMap{"d": dTags},
		Limit:   len(stack.AppRefs),
	}
	evs := events.DedupSortEvents(c.agg.FetchAll(ctx, c.relays.Catalog, filter, c.fetchTimeout))
	byAddress := make(map[string]App, len(evs))
	for _, ev := range evs {
		app := c.norm.ParseApp(ev)
		byAddress[app.Address().String()] = app
	}
	apps := make([]App, 0, len(stack.AppRefs))
	for _, ref := range stack.AppRefs {
		if app, ok := byAddress[ref.String()]; ok {
			apps = append(apps, app)
		}
	}
	fetchedEventsTotal.WithLabelValues("stack_apps").Add(float64(len(apps)))
	return apps
}
