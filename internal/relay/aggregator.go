package relay

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"
)

// teardownGrace bounds how long the aggregator waits, after its deadline
// fires, for the cancelled request to wind down.
const teardownGrace = 100 * time.Millisecond

// Aggregator runs relay requests under a hard time budget. Its fetch
// operations never fail: transport errors and timeouts degrade to partial
// (or empty) results, and both operations return within the budget plus the
// fixed teardown grace.
type Aggregator struct {
	tr  Transport
	log zerolog.Logger
}

// NewAggregator wraps tr with deadline-bounded fetch operations.
func NewAggregator(tr Transport, log zerolog.Logger) *Aggregator {
	return &Aggregator{tr: tr, log: log.With().Str("component", "aggregator").Logger()}
}

// FetchAll collects every event the transport delivers for filter until the
// stream completes or timeout elapses, whichever is first. A zero or
// negative timeout returns immediately with no results.
func (a *Aggregator) FetchAll(ctx context.Context, relays []string, filter nostr.Filter, timeout time.Duration) []*nostr.Event {
	if timeout <= 0 {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch, err := a.tr.Request(cctx, relays, nostr.Filters{filter})
	if err != nil {
		a.log.Warn().Err(err).Msg("request failed")
		return nil
	}

	var collected []*nostr.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return collected
			}
			collected = append(collected, ev)
		case <-cctx.Done():
			cancel()
			return append(collected, drain(ch)...)
		}
	}
}

// FetchFirst returns the first event the transport delivers, cancelling the
// request as soon as it arrives. It returns nil when the deadline elapses
// first or the stream completes empty.
func (a *Aggregator) FetchFirst(ctx context.Context, relays []string, filter nostr.Filter, timeout time.Duration) *nostr.Event {
	if timeout <= 0 {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch, err := a.tr.Request(cctx, relays, nostr.Filters{filter})
	if err != nil {
		a.log.Warn().Err(err).Msg("request failed")
		return nil
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if ev != nil {
				cancel()
				return ev
			}
		case <-cctx.Done():
			return nil
		}
	}
}

// drain gives a cancelled request the teardown grace to flush events that
// were already in flight, then gives up.
func drain(ch <-chan *nostr.Event) []*nostr.Event {
	timer := time.NewTimer(teardownGrace)
	defer timer.Stop()

	var rest []*nostr.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return rest
			}
			rest = append(rest, ev)
		case <-timer.C:
			return rest
		}
	}
}
