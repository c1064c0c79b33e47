package zapstore

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/zapstore/zapstore-go/internal/types"
)

// FetchProfile returns the recipient's kind-0 profile, consulting the
// cache first. Returns nil when no profile could be found in time.
func (c *Client) FetchProfile(ctx context.Context, pubkey string) *Profile {
	if pubkey == "" {
		return nil
	}
	if c.cache != nil {
		var cached Profile
		if ok, err := c.cache.Get(ctx, KindProfile, pubkey, &cached); err != nil {
			c.log.Warn().Err(err).Str("pubkey", pubkey).Msg("profile cache read failed")
		} else if ok {
			cacheHitsTotal.WithLabelValues("profile").Inc()
			return &cached
		}
	}
	return c.fetchProfileFromRelays(ctx, pubkey)
}

// FetchProfileFresh bypasses the cache and always asks the relays, so
// lightning address changes are seen immediately. The result still
// refreshes the cache.
func (c *Client) FetchProfileFresh(ctx context.Context, pubkey string) *Profile {
	if pubkey == "" {
		return nil
	}
	return c.fetchProfileFromRelays(ctx, pubkey)
}

func (c *Client) fetchProfileFromRelays(ctx context.Context, pubkey string) *Profile {
	fetchesTotal.WithLabelValues("profile").Inc()
	filter := nostr.Filter{
		Kinds:   []int{types.KindProfile},
		Authors: []string{pubkey},
		Limit:   1,
	}
	ev := c.agg.FetchFirst(ctx, c.relays.Profiles, filter, c.fetchTimeout)
	if ev == nil {
		return nil
	}
	p := c.norm.ParseProfile(ev)
	fetchedEventsTotal.WithLabelValues("profile").Inc()
	if c.cache != nil {
		if err := c.cache.Put(ctx, KindProfile, pubkey, p); err != nil {
			c.log.Warn().Err(err).Str("pubkey", pubkey).Msg("profile cache write failed")
		}
	}
	return &p
}
