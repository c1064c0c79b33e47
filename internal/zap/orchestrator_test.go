package zap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapstore/zapstore-go/internal/events"
	"github.com/zapstore/zapstore-go/internal/lnurl"
	"github.com/zapstore/zapstore-go/internal/signer"
	"github.com/zapstore/zapstore-go/internal/types"
)

const testInvoice = "lnbc210n1pfakeinvoice"

// fakeSubTransport hands out a controllable receipt channel on Subscribe.
type fakeSubTransport struct {
	receipts  chan *nostr.Event
	filters   nostr.Filters
	relays    []string
	subscribe bool
}

func newFakeSubTransport() *fakeSubTransport {
	return &fakeSubTransport{receipts: make(chan *nostr.Event, 8)}
}

func (f *fakeSubTransport) Request(ctx context.Context, relays []string, filters nostr.Filters) (<-chan *nostr.Event, error) {
	ch := make(chan *nostr.Event)
	close(ch)
	return ch, nil
}

func (f *fakeSubTransport) Subscribe(ctx context.Context, relays []string, filters nostr.Filters) (<-chan *nostr.Event, context.CancelFunc, error) {
	f.subscribe = true
	f.filters = filters
	f.relays = relays
	sctx, cancel := context.WithCancel(ctx)
	out := make(chan *nostr.Event)
	go func() {
		defer close(out)
		for {
			select {
			case ev := <-f.receipts:
				select {
				case out <- ev:
				case <-sctx.Done():
					return
				}
			case <-sctx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

func (f *fakeSubTransport) Publish(ctx context.Context, relays []string, ev *nostr.Event) error {
	return nil
}

type staticProfiles struct{ profile types.Profile }

func (s staticProfiles) FreshProfile(ctx context.Context, pubkey string) (*types.Profile, error) {
	p := s.profile
	p.PubKey = pubkey
	return &p, nil
}

// startPaymentServer serves LNURL discovery and invoice issuance; the lud06
// form keeps the endpoint on plain http for the test server.
func startPaymentServer(t *testing.T, minSendable int64) types.Profile {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/lnurlp/alice", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"callback":    srv.URL + "/callback",
			"minSendable": minSendable,
			"maxSendable": 100_000_000,
			"allowsNostr": true,
			"nostrPubkey": "ab",
		})
	})
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		var req nostr.Event
		if err := json.Unmarshal([]byte(r.URL.Query().Get("nostr")), &req); err != nil {
			t.Errorf("callback received malformed zap request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"pr": testInvoice})
	})

	data, err := bech32.ConvertBits([]byte(srv.URL+"/lnurlp/alice"), 8, 5, true)
	require.NoError(t, err)
	lud06, err := bech32.Encode("lnurl", data)
	require.NoError(t, err)
	return types.Profile{Lud06: lud06}
}

func testOrchestrator(t *testing.T, tr *fakeSubTransport, minSendable int64) (*Orchestrator, string) {
	t.Helper()
	sk := nostr.GeneratePrivateKey()
	key, err := signer.NewKey(sk)
	require.NoError(t, err)

	o := NewOrchestrator(Config{
		Transport:     tr,
		LNURL:         lnurl.NewClient(&http.Client{}, zerolog.Nop()),
		Profiles:      staticProfiles{profile: startPaymentServer(t, minSendable)},
		Signer:        key,
		Normalizer:    events.NewNormalizer(nil),
		ReceiptRelays: []string{"wss://receipts.example"},
		Log:           zerolog.Nop(),
	})
	recipient, err := nostr.GetPublicKey(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	return o, recipient
}

func appTarget(recipient string) Target {
	return Target{
		Recipient: recipient,
		Address:   types.AddressCoordinate{Kind: types.KindApp, PubKey: recipient, Identifier: "com.example.app"},
		EventID:   "app-event-id",
	}
}

func receiptFor(request *nostr.Event) *nostr.Event {
	raw, _ := json.Marshal(request)
	return &nostr.Event{
		ID:        "receipt-1",
		Kind:      types.KindZapReceipt,
		CreatedAt: nostr.Now(),
		Tags: nostr.Tags{
			{"bolt11", testInvoice},
			{"description", string(raw)},
		},
	}
}

func TestZapHappyPath(t *testing.T) {
	tr := newFakeSubTransport()
	o, recipient := testOrchestrator(t, tr, 1000)

	pending, err := o.Zap(context.Background(), appTarget(recipient), 21, "great app", Options{})
	require.NoError(t, err)
	defer pending.Cancel()

	assert.Equal(t, testInvoice, pending.Invoice)
	assert.Equal(t, StateCorrelating, pending.State())
	require.NotNil(t, pending.Request)
	assert.Equal(t, types.KindZapRequest, pending.Request.Kind)
	assert.Equal(t, "great app", pending.Request.Content)
	assert.NotEmpty(t, pending.Request.Sig, "zap request must be signed")

	// Both tag cases are watched so receipts from either convention land.
	require.True(t, tr.subscribe)
	require.Len(t, tr.filters, 2)
	assert.Equal(t, []string{recipient}, tr.filters[0].Tags["p"])
	assert.Equal(t, []string{recipient}, tr.filters[1].Tags["P"])
	assert.Contains(t, tr.relays, "wss://receipts.example")

	tr.receipts <- receiptFor(pending.Request)

	select {
	case m, ok := <-pending.Receipts():
		require.True(t, ok)
		assert.Equal(t, "description", m.Rule)
		assert.Equal(t, "receipt-1", m.Receipt.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no match delivered")
	}
	assert.Equal(t, StateMatched, pending.State())

	// The channel is one-shot: it must now be closed.
	_, open := <-pending.Receipts()
	assert.False(t, open)
}

func TestZapIgnoresForeignReceipts(t *testing.T) {
	tr := newFakeSubTransport()
	o, recipient := testOrchestrator(t, tr, 1000)

	pending, err := o.Zap(context.Background(), appTarget(recipient), 21, "", Options{})
	require.NoError(t, err)
	defer pending.Cancel()

	tr.receipts <- &nostr.Event{
		ID:   "foreign",
		Kind: types.KindZapReceipt,
		Tags: nostr.Tags{{"bolt11", "lnbc1otherinvoice"}, {"e", "unrelated"}},
	}
	tr.receipts <- receiptFor(pending.Request)

	select {
	case m := <-pending.Receipts():
		assert.Equal(t, "receipt-1", m.Receipt.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("matching receipt never delivered")
	}
}

func TestZapValidation(t *testing.T) {
	tr := newFakeSubTransport()
	o, recipient := testOrchestrator(t, tr, 1000)
	ctx := context.Background()

	_, err := o.Zap(ctx, Target{}, 21, "", Options{})
	assert.Error(t, err, "missing recipient")

	_, err = o.Zap(ctx, appTarget(recipient), 0, "", Options{})
	assert.Error(t, err, "zero amount")

	noSigner := NewOrchestrator(Config{Transport: tr, Log: zerolog.Nop()})
	_, err = noSigner.Zap(ctx, appTarget(recipient), 21, "", Options{})
	assert.ErrorIs(t, err, signer.ErrNoSigner)
}

func TestZapAmountOutOfRange(t *testing.T) {
	tr := newFakeSubTransport()
	o, recipient := testOrchestrator(t, tr, 50_000) // minimum 50 sats

	_, err := o.Zap(context.Background(), appTarget(recipient), 21, "", Options{})
	var rangeErr *lnurl.AmountRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, int64(21_000), rangeErr.AmountMsat)
}

func TestZapCancelClosesChannel(t *testing.T) {
	tr := newFakeSubTransport()
	o, recipient := testOrchestrator(t, tr, 1000)

	pending, err := o.Zap(context.Background(), appTarget(recipient), 21, "", Options{})
	require.NoError(t, err)

	pending.Cancel()
	pending.Cancel() // idempotent

	_, open := <-pending.Receipts()
	assert.False(t, open)
	assert.Equal(t, StateCancelled, pending.State())
}

func TestZapCorrelationTimeout(t *testing.T) {
	tr := newFakeSubTransport()
	o, recipient := testOrchestrator(t, tr, 1000)

	pending, err := o.Zap(context.Background(), appTarget(recipient), 21, "",
		Options{CorrelationTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	select {
	case _, open := <-pending.Receipts():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("correlation did not time out")
	}
	assert.Equal(t, StateCancelled, pending.State())
}

func TestZapErrorsArePermanent(t *testing.T) {
	// A failed attempt returns synchronously and never surfaces a pending
	// handle; there is nothing to cancel or drain.
	tr := newFakeSubTransport()
	o, _ := testOrchestrator(t, tr, 1000)

	pending, err := o.Zap(context.Background(), Target{Recipient: ""}, 21, "", Options{})
	assert.Nil(t, pending)
	assert.False(t, errors.Is(err, context.Canceled))
}
