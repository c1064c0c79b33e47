package zapstore

import (
	"context"
	"testing"

	"github.com/nbd-wtf/go-nostr"

	"github.com/zapstore/zapstore-go/internal/types"
)

func releaseEvent(id string, app App, fileIDs []string, createdAt int64) *nostr.Event {
	tags := nostr.Tags{
		{"d", app.DTag + "@1.2.0"},
		{"a", app.Address().String()},
	}
	for _, fid := range fileIDs {
		tags = append(tags, nostr.Tag{"e", fid})
	}
	return &nostr.Event{
		ID:        id,
		PubKey:    app.PubKey,
		Kind:      types.KindRelease,
		CreatedAt: nostr.Timestamp(createdAt),
		Content:   "release notes",
		Tags:      tags,
	}
}

func fileEvent(id, version string) *nostr.Event {
	return &nostr.Event{
		ID:        id,
		PubKey:    testPubKey,
		Kind:      types.KindFileMetadata,
		CreatedAt: 100,
		Tags: nostr.Tags{
			{"url", "https://cdn.example/" + id + ".apk"},
			{"m", "application/vnd.android.package-archive"},
			{"x", "abc123"},
			{"version", version},
		},
	}
}

func TestFetchLatestReleasePicksNewest(t *testing.T) {
	t.Parallel()
	app := App{ID: "app-ev", PubKey: testPubKey, DTag: "com.example.app"}
	tr := &stubTransport{events: []*nostr.Event{
		releaseEvent("old", app, []string{"f1"}, 100),
		releaseEvent("new", app, []string{"f2"}, 200),
	}}
	c := newTestClient(t, tr)

	rel := c.FetchLatestRelease(context.Background(), app, false)
	if rel == nil || rel.ID != "new" {
		t.Fatalf("release = %+v, want the newest", rel)
	}
	if len(rel.EventRefs) != 1 || rel.EventRefs[0] != "f2" {
		t.Fatalf("EventRefs = %v", rel.EventRefs)
	}
}

func TestFetchLatestReleaseCacheAndSkip(t *testing.T) {
	t.Parallel()
	app := App{PubKey: testPubKey, DTag: "com.example.app"}
	tr := &stubTransport{events: []*nostr.Event{
		releaseEvent("rel", app, nil, 100),
	}}
	c := newTestClient(t, tr)
	ctx := context.Background()

	if rel := c.FetchLatestRelease(ctx, app, false); rel == nil {
		t.Fatal("first fetch = nil")
	}
	calls := tr.requestCount()

	if rel := c.FetchLatestRelease(ctx, app, false); rel == nil {
		t.Fatal("cached fetch = nil")
	}
	if tr.requestCount() != calls {
		t.Fatal("cached fetch hit the transport")
	}

	if rel := c.FetchLatestRelease(ctx, app, true); rel == nil {
		t.Fatal("skip-cache fetch = nil")
	}
	if tr.requestCount() != calls+1 {
		t.Fatal("skip-cache fetch did not hit the transport")
	}
}

func TestFetchFileMetadataMergesCacheAndRelays(t *testing.T) {
	t.Parallel()
	tr := &stubTransport{script: [][]*nostr.Event{
		{fileEvent("f1", "1.0.0")},
		{fileEvent("f2", "1.1.0")},
	}}
	c := newTestClient(t, tr)
	ctx := context.Background()

	got := c.FetchFileMetadata(ctx, []string{"f1"})
	if len(got) != 1 || got[0].Version != "1.0.0" {
		t.Fatalf("first fetch = %+v", got)
	}

	// f1 now comes from the cache; only f2 goes over the wire.
	calls := tr.requestCount()
	got = c.FetchFileMetadata(ctx, []string{"f1", "f2"})
	if len(got) != 2 {
		t.Fatalf("merged fetch = %+v", got)
	}
	if got[0].ID != "f1" || got[1].ID != "f2" {
		t.Fatalf("order = %q, %q, want input order", got[0].ID, got[1].ID)
	}
	if tr.requestCount() != calls+1 {
		t.Fatalf("requests = %d, want exactly one for the miss", tr.requestCount()-calls)
	}
}

func TestFetchAppVersion(t *testing.T) {
	t.Parallel()
	app := App{PubKey: testPubKey, DTag: "com.example.app"}
	tr := &stubTransport{script: [][]*nostr.Event{
		{releaseEvent("rel", app, []string{"f1"}, 100)},
		{fileEvent("f1", "2.4.1")},
	}}
	c := newTestClient(t, tr)

	if got := c.FetchAppVersion(context.Background(), app); got != "2.4.1" {
		t.Fatalf("version = %q", got)
	}
}

func TestFetchAppVersionNoRelease(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, &stubTransport{})
	if got := c.FetchAppVersion(context.Background(), App{PubKey: testPubKey, DTag: "x"}); got != "" {
		t.Fatalf("version = %q, want empty", got)
	}
}
