// Package zapstore is a Go client for the Zapstore app catalog on nostr.
// It fetches and normalizes catalog events (apps, releases, file metadata,
// app stacks), profiles and comments from a set of relays within a bounded
// time budget, and drives NIP-57 zap payments end to end: endpoint
// discovery, invoice retrieval and receipt correlation.
//
// Construct a Client with New and functional options:
//
//	c, err := zapstore.New(
//		zapstore.WithCachePath("~/.cache/zapstore/cache.db"),
//		zapstore.WithSignerKey(nsec),
//	)
//
// Fetch operations never fail on relay errors or timeouts; they return
// whatever arrived before the deadline. Publishing and zapping return
// errors because they cannot partially succeed.
package zapstore

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapstore/zapstore-go/internal/cache"
	"github.com/zapstore/zapstore-go/internal/events"
	"github.com/zapstore/zapstore-go/internal/lnurl"
	"github.com/zapstore/zapstore-go/internal/markdown"
	"github.com/zapstore/zapstore-go/internal/relay"
	"github.com/zapstore/zapstore-go/internal/signer"
	"github.com/zapstore/zapstore-go/internal/types"
	"github.com/zapstore/zapstore-go/internal/zap"
)

const (
	defaultFetchTimeout   = 8 * time.Second
	defaultHTTPTimeout    = 30 * time.Second
	commentFetchTimeout   = 15 * time.Second
	defaultPlatformTarget = "android-arm64-v8a"
)

// Client talks to nostr relays and LNURL endpoints on behalf of a
// Zapstore app. It is safe for concurrent use.
type Client struct {
	relays types.RelaySet
	tr     relay.Transport
	agg    *relay.Aggregator
	norm   *events.Normalizer
	lnurl  *lnurl.Client
	zaps   *zap.Orchestrator

	cache      cache.Cache
	ownedCache bool

	signer signer.Signer
	render func(string) string

	http *http.Client
	log  zerolog.Logger

	fetchTimeout       time.Duration
	correlationTimeout time.Duration

	cancelPool context.CancelFunc
	closeOnce  sync.Once
}

// New builds a Client. Without options it uses the default relay set, an
// in-process relay pool, no cache and no signer.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		relays:       types.DefaultRelaySet(),
		http:         &http.Client{Timeout: defaultHTTPTimeout},
		log:          zerolog.Nop(),
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if debugLoggingRequested() {
		c.http.Transport = newDebugTransport(c.http.Transport, c.log)
	}
	if c.render == nil {
		c.render = markdown.NewRenderer()
	}
	c.norm = events.NewNormalizer(c.render)
	if c.tr == nil {
		pctx, cancel := context.WithCancel(context.Background())
		c.cancelPool = cancel
		c.tr = relay.NewPool(pctx, c.log)
	}
	c.agg = relay.NewAggregator(c.tr, c.log)
	c.lnurl = lnurl.NewClient(c.http, c.log)
	c.zaps = zap.NewOrchestrator(zap.Config{
		Transport:     c.tr,
		LNURL:         c.lnurl,
		Profiles:      profileSource{c},
		Signer:        c.signer,
		Normalizer:    c.norm,
		ReceiptRelays: receiptRelays(c.relays),
		Log:           c.log,
	})
	return c, nil
}

// receiptRelays is where zap receipts are watched for: the social and
// catalog relays plus nostr.wine, which many wallets publish to.
func receiptRelays(rs types.RelaySet) []string {
	return types.UnionRelays(rs.Social, rs.Catalog, []string{"wss://nostr.wine"})
}

// Close releases the relay pool and any cache the client opened itself.
// Caches passed in via WithCache stay open; the caller owns them.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.cancelPool != nil {
			c.cancelPool()
		}
		if c.ownedCache && c.cache != nil {
			err = c.cache.Close()
		}
	})
	return err
}

// Relays returns the relay set the client fans out to.
func (c *Client) Relays() RelaySet { return c.relays }

// profileSource adapts the client's fresh-profile fetch to the zap
// orchestrator, which must never see a cached lightning address.
type profileSource struct{ c *Client }

func (s profileSource) FreshProfile(ctx context.Context, pubkey string) (*types.Profile, error) {
	p := s.c.FetchProfileFresh(ctx, pubkey)
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}
