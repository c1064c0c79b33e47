// Package signer defines the external signing capability the SDK delegates
// to. The SDK never signs events itself; callers plug in a key-backed
// signer or a remote one.
package signer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// ErrNoSigner is returned by operations that need a signature when no
// signer was configured.
var ErrNoSigner = errors.New("no signer configured")

// Signer produces signed events on behalf of one identity.
type Signer interface {
	// Sign fills in the event's pubkey, id and signature.
	Sign(ctx context.Context, ev *nostr.Event) error

	// PublicKey returns the hex pubkey events will be signed with.
	PublicKey(ctx context.Context) (string, error)
}

// Key is a Signer backed by a local private key.
type Key struct {
	sk string
	pk string
}

// NewKey builds a key signer from a hex private key or an nsec string.
func NewKey(secret string) (*Key, error) {
	sk := strings.TrimSpace(secret)
	if strings.HasPrefix(sk, "nsec1") {
		prefix, value, err := nip19.Decode(sk)
		if err != nil {
			return nil, fmt.Errorf("decode nsec: %w", err)
		}
		if prefix != "nsec" {
			return nil, fmt.Errorf("secret is %s-encoded, want nsec", prefix)
		}
		sk = value.(string)
	}
	pk, err := nostr.GetPublicKey(sk)
	if err != nil {
		return nil, fmt.Errorf("derive pubkey: %w", err)
	}
	return &Key{sk: sk, pk: pk}, nil
}

// Sign implements Signer.
func (k *Key) Sign(_ context.Context, ev *nostr.Event) error {
	return ev.Sign(k.sk)
}

// PublicKey implements Signer.
func (k *Key) PublicKey(context.Context) (string, error) { return k.pk, nil }
