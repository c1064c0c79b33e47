package zapstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"

	"github.com/zapstore/zapstore-go/internal/events"
	"github.com/zapstore/zapstore-go/internal/types"
)

// FetchComments lists the comment thread rooted at an app, newest
// first. Relays indexed on the uppercase root tag are asked first; the
// lowercase form is a fallback for relays that only index parent tags.
func (c *Client) FetchComments(ctx context.Context, pubkey, dTag string) []Comment {
	if pubkey == "" || dTag == "" {
		return nil
	}
	fetchesTotal.WithLabelValues("comments").Inc()
	address := types.AppAddress(pubkey, dTag).String()
	filter := nostr.Filter{
		Kinds: []int{types.KindComment},
		Tags:  nostr.TagMap{"A": []string{address}},
		Limit: 100,
	}
	evs := c.agg.FetchAll(ctx, c.relays.Comments, filter, commentFetchTimeout)
	if len(evs) == 0 {
		filter.Tags = nostr.TagMap{"a": []string{address}}
		evs = c.agg.FetchAll(ctx, c.relays.Comments, filter, commentFetchTimeout)
	}
	evs = events.DedupSortEvents(evs)
	comments := make([]Comment, 0, len(evs))
	for _, ev := range evs {
		comments = append(comments, c.norm.ParseComment(ev))
	}
	fetchedEventsTotal.WithLabelValues("comments").Add(float64(len(comments)))
	return comments
}

// PublishComment signs and publishes a comment on an app. A nil parent
// starts a new thread on the app version; otherwise the comment replies
// to parent within its thread. The signed event is returned once at
// least one comment relay accepts it.
func (c *Client) PublishComment(ctx context.Context, app App, content, version string, parent *Comment) (*nostr.Event, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	if app.PubKey == "" || app.DTag == "" {
		return nil, fmt.Errorf("publish comment: app is missing pubkey or identifier")
	}

	address := app.Address().String()
	appKind := strconv.Itoa(types.KindApp)
	tags := nostr.Tags{
		{"A", address},
		{"K", appKind},
		{"P", app.PubKey},
	}
	if version != "" {
		tags = append(tags, nostr.Tag{"v", version})
	}
	if parent == nil {
		// Top-level comments mirror the root in the parent position.
		tags = append(tags,
			nostr.Tag{"a", address},
			nostr.Tag{"k", appKind},
			nostr.Tag{"p", app.PubKey},
		)
	} else {
		if parent.ID == "" {
			return nil, fmt.Errorf("publish comment: parent comment has no id")
		}
		tags = append(tags,
			nostr.Tag{"e", parent.ID},
			nostr.Tag{"k", strconv.Itoa(types.KindComment)},
		)
		if parent.PubKey != "" {
			tags = append(tags, nostr.Tag{"p", parent.PubKey})
		}
	}

	ev := &nostr.Event{
		Kind:      types.KindComment,
		CreatedAt: nostr.Now(),
		Content:   content,
		Tags:      tags,
	}
	if err := c.signer.Sign(ctx, ev); err != nil {
		return nil, fmt.Errorf("sign comment: %w", err)
	}
	if err := c.tr.Publish(ctx, c.relays.Comments, ev); err != nil {
		return nil, fmt.Errorf("publish comment: %w", err)
	}
	c.log.Debug().Str("id", ev.ID).Str("app", address).Msg("comment published")
	return ev, nil
}
