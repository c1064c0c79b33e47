package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// fakeRelay speaks just enough of the relay wire protocol for the pool:
// REQ answers with the stored events and EOSE, EVENT acknowledges with OK.
type fakeRelay struct {
	stored []nostr.Event
}

func (f *fakeRelay) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame []json.RawMessage
		if json.Unmarshal(msg, &frame) != nil || len(frame) < 2 {
			continue
		}
		var typ string
		_ = json.Unmarshal(frame[0], &typ)
		switch typ {
		case "REQ":
			var subID string
			_ = json.Unmarshal(frame[1], &subID)
			for i := range f.stored {
				out, _ := json.Marshal([]any{"EVENT", subID, f.stored[i]})
				_ = conn.WriteMessage(websocket.TextMessage, out)
			}
			eose, _ := json.Marshal([]any{"EOSE", subID})
			_ = conn.WriteMessage(websocket.TextMessage, eose)
		case "EVENT":
			var ev nostr.Event
			_ = json.Unmarshal(frame[1], &ev)
			ok, _ := json.Marshal([]any{"OK", ev.ID, true, ""})
			_ = conn.WriteMessage(websocket.TextMessage, ok)
		}
	}
}

// startFakeRelay serves the fake over a test HTTP server and returns its
// ws:// URL.
func startFakeRelay(t *testing.T, stored []nostr.Event) string {
	t.Helper()
	fr := &fakeRelay{stored: stored}
	srv := httptest.NewServer(http.HandlerFunc(fr.handler))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func signedEvent(t *testing.T, sk, content string) nostr.Event {
	t.Helper()
	ev := nostr.Event{
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
		Content:   content,
		Tags:      nostr.Tags{},
	}
	if err := ev.Sign(sk); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return ev
}

func TestPoolRequestDeliversStoredEvents(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	if err != nil {
		t.Fatalf("GetPublicKey: %v", err)
	}
	url := startFakeRelay(t, []nostr.Event{
		signedEvent(t, sk, "first"),
		signedEvent(t, sk, "second"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool := NewPool(ctx, zerolog.Nop())

	ch, err := pool.Request(ctx, []string{url}, nostr.Filters{{
		Kinds:   []int{nostr.KindTextNote},
		Authors: []string{pk},
	}})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	var got []*nostr.Event
	for ev := range ch {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
}

func TestPoolRequestNoRelays(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool := NewPool(ctx, zerolog.Nop())
	if _, err := pool.Request(ctx, nil, nostr.Filters{{}}); err == nil {
		t.Fatalf("Request with no relays succeeded, want error")
	}
	if err := pool.Publish(ctx, []string{""}, &nostr.Event{}); err == nil {
		t.Fatalf("Publish with only empty relay URLs succeeded, want error")
	}
}

func TestPoolPublishAccepted(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	url := startFakeRelay(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool := NewPool(ctx, zerolog.Nop())

	ev := signedEvent(t, sk, "hello relay")
	if err := pool.Publish(ctx, []string{url}, &ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
