package zapstore

import (
	"github.com/zapstore/zapstore-go/internal/cache"
	"github.com/zapstore/zapstore-go/internal/signer"
	"github.com/zapstore/zapstore-go/internal/types"
	"github.com/zapstore/zapstore-go/internal/zap"
)

// Event kinds the client reads and writes.
const (
	KindProfile      = types.KindProfile
	KindFileMetadata = types.KindFileMetadata
	KindComment      = types.KindComment
	KindZapRequest   = types.KindZapRequest
	KindZapReceipt   = types.KindZapReceipt
	KindRelease      = types.KindRelease
	KindAppStack     = types.KindAppStack
	KindApp          = types.KindApp
)

// Domain records produced by fetch operations.
type (
	App          = types.App
	Release      = types.Release
	FileMetadata = types.FileMetadata
	ZapReceipt   = types.ZapReceipt
	ZapSummary   = types.ZapSummary
	Comment      = types.Comment
	AppStack     = types.AppStack
	Profile      = types.Profile
	ZapEndpoint  = types.ZapEndpoint
	Invoice      = types.Invoice
)

// AddressCoordinate is a "kind:pubkey:identifier" reference to a
// parameterized replaceable event.
type AddressCoordinate = types.AddressCoordinate

// RelaySet groups the relay URLs the client fans out to, by concern.
type RelaySet = types.RelaySet

// DefaultRelaySet returns the relays used when none are configured.
func DefaultRelaySet() RelaySet { return types.DefaultRelaySet() }

// Signer produces signatures for outgoing events. Implementations must
// be safe for concurrent use.
type Signer = signer.Signer

// Cache is the optional persistence layer consulted before relay
// round-trips.
type Cache = cache.Cache

// ZapTarget identifies what a zap attempt pays for.
type ZapTarget = zap.Target

// PendingZap is the live handle for a zap attempt in correlation.
type PendingZap = zap.Pending

// ZapMatch is a correlated receipt plus the rule that bound it.
type ZapMatch = zap.Match

// ZapState enumerates a zap attempt's lifecycle positions.
type ZapState = zap.State

const (
	ZapStateIdle              = zap.StateIdle
	ZapStateResolvingEndpoint = zap.StateResolvingEndpoint
	ZapStateRequestingInvoice = zap.StateRequestingInvoice
	ZapStateCorrelating       = zap.StateCorrelating
	ZapStateMatched           = zap.StateMatched
	ZapStateCancelled         = zap.StateCancelled
)
