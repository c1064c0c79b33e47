package zap

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"

	"github.com/zapstore/zapstore-go/internal/events"
	"github.com/zapstore/zapstore-go/internal/lnurl"
	"github.com/zapstore/zapstore-go/internal/relay"
	"github.com/zapstore/zapstore-go/internal/signer"
	"github.com/zapstore/zapstore-go/internal/types"
)

// receiptWindow is how far the receipt subscription's time lower bound sits
// before request submission, tolerating clock skew and in-flight delay.
const receiptWindow = 300 * time.Second

// State is the lifecycle position of one zap attempt.
type State int32

const (
	StateIdle State = iota
	StateResolvingEndpoint
	StateRequestingInvoice
	StateCorrelating
	StateMatched
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingEndpoint:
		return "resolving-endpoint"
	case StateRequestingInvoice:
		return "requesting-invoice"
	case StateCorrelating:
		return "correlating"
	case StateMatched:
		return "matched"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ProfileSource supplies a fresh, cache-bypassing profile for the zap
// recipient. Endpoints must be re-verified on every attempt.
type ProfileSource interface {
	FreshProfile(ctx context.Context, pubkey string) (*types.Profile, error)
}

// Target identifies what is being zapped.
type Target struct {
	Recipient string                  // pubkey receiving the payment
	Address   types.AddressCoordinate // originating parameterized-event coordinate
	EventID   string                  // originating event id, when known
	Relays    []string                // extra relays to watch for the receipt
}

// Options tune one zap attempt.
type Options struct {
	// CorrelationTimeout bounds how long the receipt subscription stays
	// open. Zero means it lives until Cancel or the caller's context ends.
	CorrelationTimeout time.Duration

	// OnMatch, when set, observes the bound receipt before it is
	// delivered to the attempt's channel. Must not block.
	OnMatch func(Match)
}

// Match is a confirmed receipt together with the rule that bound it.
type Match struct {
	Receipt types.ZapReceipt
	Rule    string
}

// Pending is the live handle for a zap attempt that reached correlation.
// Its receipt channel delivers at most one Match and is then closed; the
// subscription behind it is released exactly once, on match, Cancel, or
// context end.
type Pending struct {
	AttemptID     string
	Request       *nostr.Event
	Endpoint      *types.ZapEndpoint
	Invoice       string
	SuccessAction any

	matches chan Match
	cancel  context.CancelFunc
	finish  sync.Once
	state   atomic.Int32
}

// Receipts returns the one-shot match channel.
func (p *Pending) Receipts() <-chan Match { return p.matches }

// State reports the attempt's current lifecycle position.
func (p *Pending) State() State { return State(p.state.Load()) }

// Cancel releases the receipt subscription. Safe to call repeatedly and
// after a match.
func (p *Pending) Cancel() {
	if p.cancel != nil {
		p.cancel()
	}
	p.finishCancelled()
}

func (p *Pending) finishMatched(m Match) {
	p.finish.Do(func() {
		p.state.Store(int32(StateMatched))
		p.matches <- m
		close(p.matches)
		if p.cancel != nil {
			p.cancel()
		}
	})
}

func (p *Pending) finishCancelled() {
	p.finish.Do(func() {
		p.state.Store(int32(StateCancelled))
		close(p.matches)
	})
}

// Config wires an Orchestrator.
type Config struct {
	Transport     relay.Transport
	LNURL         *lnurl.Client
	Profiles      ProfileSource
	Signer        signer.Signer
	Normalizer    *events.Normalizer
	ReceiptRelays []string
	Log           zerolog.Logger
}

// Orchestrator drives zap attempts end to end.
type Orchestrator struct {
	cfg Config
	log zerolog.Logger
}

// NewOrchestrator validates nothing up front; a missing signer only fails
// attempts that reach the signing step.
func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg, log: cfg.Log.With().Str("component", "zap").Logger()}
}

// Zap resolves the recipient's payment endpoint, obtains an invoice for
// amountSats, and begins receipt correlation. Resolution, bounds and
// invoice failures return synchronously; a missing receipt is not an error.
func (o *Orchestrator) Zap(ctx context.Context, target Target, amountSats int64, comment string, opts Options) (*Pending, error) {
	if target.Recipient == "" {
		return nil, fmt.Errorf("zap: missing recipient pubkey")
	}
	if amountSats <= 0 {
		return nil, fmt.Errorf("zap: invalid amount %d sats", amountSats)
	}
	if o.cfg.Signer == nil {
		return nil, signer.ErrNoSigner
	}

	p := &Pending{AttemptID: uuid.NewString(), matches: make(chan Match, 1)}
	log := o.log.With().Str("attempt", p.AttemptID).Str("recipient", target.Recipient).Logger()

	p.state.Store(int32(StateResolvingEndpoint))
	profile, err := o.cfg.Profiles.FreshProfile(ctx, target.Recipient)
	if err != nil {
		return nil, err
	}
	endpoint, err := o.cfg.LNURL.ResolveEndpoint(ctx, *profile)
	if err != nil {
		return nil, err
	}

	amountMsat := amountSats * 1000
	if err := lnurl.CheckAmount(endpoint, amountMsat); err != nil {
		return nil, err
	}

	p.state.Store(int32(StateRequestingInvoice))
	request := o.buildRequest(target, amountMsat, comment)
	if err := o.cfg.Signer.Sign(ctx, request); err != nil {
		return nil, fmt.Errorf("sign zap request: %w", err)
	}
	raw, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode zap request: %w", err)
	}
	invoice, err := o.cfg.LNURL.RequestInvoice(ctx, endpoint.Callback, raw, amountMsat)
	if err != nil {
		return nil, err
	}

	p.Request = request
	p.Endpoint = endpoint
	p.Invoice = invoice.PaymentRequest
	p.SuccessAction = invoice.SuccessAction
	log.Info().Int64("msat", amountMsat).Str("request", request.ID).Msg("invoice obtained, correlating receipt")

	o.correlate(ctx, p, target, opts, log)
	return p, nil
}

// buildRequest assembles the unsigned payment-request event: recipient
// reference, address coordinate, amount, relay hints, and the originating
// event when known.
func (o *Orchestrator) buildRequest(target Target, amountMsat int64, comment string) *nostr.Event {
	tags := nostr.Tags{
		{"p", target.Recipient},
		{"amount", strconv.FormatInt(amountMsat, 10)},
	}
	if target.Address != (types.AddressCoordinate{}) {
		tags = append(tags, nostr.Tag{"a", target.Address.String()})
	}
	relayHint := append(nostr.Tag{"relays"}, o.receiptRelays(target)...)
	tags = append(tags, relayHint)
	if target.EventID != "" {
		tags = append(tags, nostr.Tag{"e", target.EventID})
	}
	return &nostr.Event{
		Kind:      types.KindZapRequest,
		CreatedAt: nostr.Now(),
		Tags:      tags,
		Content:   strings.TrimSpace(comment),
	}
}

func (o *Orchestrator) receiptRelays(target Target) []string {
	return types.UnionRelays(o.cfg.ReceiptRelays, target.Relays)
}

// correlate opens the receipt subscription and resolves the pending attempt
// on the first candidate bound by a match rule.
func (o *Orchestrator) correlate(ctx context.Context, p *Pending, target Target, opts Options, log zerolog.Logger) {
	keys := CorrelationKeys{
		RequestID: p.Request.ID,
		Invoice:   p.Invoice,
		EventID:   target.EventID,
	}
	if target.Address != (types.AddressCoordinate{}) {
		keys.Address = target.Address.String()
	}

	var cctx context.Context
	if opts.CorrelationTimeout > 0 {
		cctx, p.cancel = context.WithTimeout(ctx, opts.CorrelationTimeout)
	} else {
		cctx, p.cancel = context.WithCancel(ctx)
	}

	since := nostr.Timestamp(time.Now().Add(-receiptWindow).Unix())
	filters := nostr.Filters{
		{Kinds: []int{types.KindZapReceipt}, Tags: nostr.TagMap{"p": {target.Recipient}}, Since: &since},
		{Kinds: []int{types.KindZapReceipt}, Tags: nostr.TagMap{"P": {target.Recipient}}, Since: &since},
	}

	ch, cancelSub, err := o.cfg.Transport.Subscribe(cctx, o.receiptRelays(target), filters)
	if err != nil {
		log.Warn().Err(err).Msg("receipt subscription failed; attempt will not confirm")
		p.cancel()
		p.finishCancelled()
		return
	}
	p.state.Store(int32(StateCorrelating))

	go func() {
		defer cancelSub()
		for {
			select {
			case <-cctx.Done():
				p.finishCancelled()
				return
			case ev, ok := <-ch:
				if !ok {
					p.finishCancelled()
					return
				}
				if ev == nil || p.State() != StateCorrelating {
					continue
				}
				rule, bound := MatchReceipt(ev, keys)
				if !bound {
					continue
				}
				log.Info().Str("receipt", ev.ID).Str("rule", rule).Msg("receipt matched")
				m := Match{Receipt: o.cfg.Normalizer.ParseZapReceipt(ev), Rule: rule}
				if opts.OnMatch != nil {
					opts.OnMatch(m)
				}
				p.finishMatched(m)
				return
			}
		}
	}()
}
