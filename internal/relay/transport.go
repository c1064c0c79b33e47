// Package relay wraps the relay transport with deadline-bounded aggregation.
//
// The transport itself (connection management, wire framing, reconnection)
// is delegated to the go-nostr SimplePool; this package only adapts it to a
// narrow interface that the rest of the SDK, and its tests, can fake.
package relay

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"

	"github.com/zapstore/zapstore-go/internal/types"
)

// Transport exposes the two relay primitives the SDK needs: a one-shot
// request that ends when every relay has sent its stored events, and a live
// subscription that runs until cancelled. Both deliver events on a channel
// that is closed when the stream ends.
type Transport interface {
	// Request opens a bounded query. The returned channel closes once all
	// relays signal end-of-stored-events or ctx is done.
	Request(ctx context.Context, relays []string, filters nostr.Filters) (<-chan *nostr.Event, error)

	// Subscribe opens a live subscription. The returned cancel function
	// releases the subscription; it is safe to call more than once.
	Subscribe(ctx context.Context, relays []string, filters nostr.Filters) (<-chan *nostr.Event, context.CancelFunc, error)

	// Publish fans the event out to the given relays. It fails only when no
	// relay accepts the event.
	Publish(ctx context.Context, relays []string, ev *nostr.Event) error
}

// Pool is the production Transport backed by a go-nostr SimplePool.
type Pool struct {
	pool *nostr.SimplePool
	log  zerolog.Logger
}

// NewPool builds a Pool whose relay connections live until ctx ends.
func NewPool(ctx context.Context, log zerolog.Logger) *Pool {
	return &Pool{
		pool: nostr.NewSimplePool(ctx),
		log:  log.With().Str("component", "relay-pool").Logger(),
	}
}

// Request implements Transport.
func (p *Pool) Request(ctx context.Context, relays []string, filters nostr.Filters) (<-chan *nostr.Event, error) {
	relays = types.UnionRelays(relays)
	if len(relays) == 0 {
		return nil, fmt.Errorf("request: no relays configured")
	}
	in := p.pool.SubManyEose(ctx, relays, filters)
	out := make(chan *nostr.Event)
	go func() {
		defer close(out)
		for ie := range in {
			if ie.Event == nil {
				continue
			}
			select {
			case out <- ie.Event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Subscribe implements Transport.
func (p *Pool) Subscribe(ctx context.Context, relays []string, filters nostr.Filters) (<-chan *nostr.Event, context.CancelFunc, error) {
	relays = types.UnionRelays(relays)
	if len(relays) == 0 {
		return nil, nil, fmt.Errorf("subscribe: no relays configured")
	}
	sctx, cancel := context.WithCancel(ctx)
	in := p.pool.SubMany(sctx, relays, filters)
	out := make(chan *nostr.Event)
	go func() {
		defer close(out)
		for ie := range in {
			if ie.Event == nil {
				continue
			}
			select {
			case out <- ie.Event:
			case <-sctx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

// Publish implements Transport. Each relay is attempted independently; one
// acceptance is enough to report success.
func (p *Pool) Publish(ctx context.Context, relays []string, ev *nostr.Event) error {
	relays = types.UnionRelays(relays)
	if len(relays) == 0 {
		return fmt.Errorf("publish: no relays configured")
	}

	var accepted int
	var lastErr error
	for _, url := range relays {
		r, err := p.pool.EnsureRelay(url)
		if err != nil {
			p.log.Warn().Str("relay", url).Err(err).Msg("connect failed")
			lastErr = err
			continue
		}
		if err := r.Publish(ctx, *ev); err != nil {
			p.log.Warn().Str("relay", url).Err(err).Msg("publish rejected")
			lastErr = err
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("publish: no relay accepted event %s: %w", ev.ID, lastErr)
	}
	p.log.Debug().Str("event", ev.ID).Int("accepted", accepted).Int("relays", len(relays)).Msg("published")
	return nil
}
