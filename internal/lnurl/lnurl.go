// Package lnurl resolves LNURL-pay endpoints for zap recipients and
// requests invoices from their callbacks. Endpoints are resolved fresh for
// every attempt; nothing here is cached.
package lnurl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/zapstore/zapstore-go/internal/types"
)

// ErrNoLightningAddress is returned when the recipient's profile carries
// neither a lightning address (lud16) nor an encoded endpoint (lud06).
var ErrNoLightningAddress = errors.New("no lightning address in profile")

// ErrZapUnsupported is returned when an endpoint exists but cannot receive
// nostr zaps: a malformed encoded endpoint, a missing allowsNostr flag, or
// a missing correlation pubkey.
var ErrZapUnsupported = errors.New("endpoint does not support nostr zaps")

// AmountRangeError reports a requested amount outside the endpoint's
// sendable range. Amounts are millisatoshi.
type AmountRangeError struct {
	AmountMsat int64
	MinMsat    int64
	MaxMsat    int64
}

func (e *AmountRangeError) Error() string {
	if e.AmountMsat < e.MinMsat {
		return fmt.Sprintf("amount %d msat below minimum sendable %d msat", e.AmountMsat, e.MinMsat)
	}
	return fmt.Sprintf("amount %d msat above maximum sendable %d msat", e.AmountMsat, e.MaxMsat)
}

// CheckAmount validates amountMsat against the endpoint's sendable range.
func CheckAmount(ep *types.ZapEndpoint, amountMsat int64) error {
	if amountMsat < ep.MinSendable || amountMsat > ep.MaxSendable {
		return &AmountRangeError{AmountMsat: amountMsat, MinMsat: ep.MinSendable, MaxMsat: ep.MaxSendable}
	}
	return nil
}

// AddressToURL converts a lud16 lightning address ("name@domain") into its
// well-known LNURL-pay discovery URL.
func AddressToURL(lud16 string) (string, error) {
	name, domain, ok := strings.Cut(lud16, "@")
	if !ok || name == "" || domain == "" {
		return "", fmt.Errorf("malformed lightning address %q", lud16)
	}
	return fmt.Sprintf("https://%s/.well-known/lnurlp/%s", domain, name), nil
}

// DecodeLNURL decodes a bech32-encoded lud06 endpoint. The human-readable
// prefix must be "lnurl" and the payload must be an http(s) URL.
func DecodeLNURL(lud06 string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(lud06))
	if !strings.HasPrefix(normalized, "lnurl1") {
		return "", fmt.Errorf("%w: lud06 is not lnurl-encoded", ErrZapUnsupported)
	}
	hrp, data, err := bech32.DecodeNoLimit(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: decode lud06: %v", ErrZapUnsupported, err)
	}
	if hrp != "lnurl" {
		return "", fmt.Errorf("%w: unexpected hrp %q", ErrZapUnsupported, hrp)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("%w: convert lud06 payload: %v", ErrZapUnsupported, err)
	}
	url := string(payload)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("%w: decoded lud06 is not an http(s) url", ErrZapUnsupported)
	}
	return url, nil
}

// DiscoveryURL picks the LNURL-pay discovery URL from a profile, preferring
// the direct address form over the encoded one.
func DiscoveryURL(p types.Profile) (string, error) {
	if p.Lud16 != "" {
		return AddressToURL(p.Lud16)
	}
	if p.Lud06 != "" {
		return DecodeLNURL(p.Lud06)
	}
	return "", ErrNoLightningAddress
}
