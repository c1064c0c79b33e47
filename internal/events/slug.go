package events

import (
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/zapstore/zapstore-go/internal/types"
)

// Npub encodes a hex pubkey in bech32 npub form. Encoding failures fall
// back to the raw hex key so callers always get a usable identifier.
func Npub(pubkey string) string {
	npub, err := nip19.EncodePublicKey(pubkey)
	if err != nil {
		return pubkey
	}
	return npub
}

// AppSlug returns the canonical naddr slug for an app. When the naddr
// encoding fails it falls back to the legacy "npub-dTag" form.
func AppSlug(pubkey, dTag string) string {
	naddr, err := nip19.EncodeEntity(pubkey, types.KindApp, dTag, nil)
	if err != nil {
		return fmt.Sprintf("%s-%s", Npub(pubkey), dTag)
	}
	return naddr
}

// npub strings are a fixed-width bech32 encoding of a 32-byte key.
const npubLength = 63

// ParseAppSlug resolves a slug back to (pubkey, dTag). It accepts the
// canonical naddr form and the legacy "npub-dTag" form.
func ParseAppSlug(slug string) (pubkey, dTag string, err error) {
	if strings.HasPrefix(slug, "naddr1") {
		prefix, value, derr := nip19.Decode(slug)
		if derr == nil && prefix == "naddr" {
			if ptr, ok := value.(nostr.EntityPointer); ok && ptr.Kind == types.KindApp {
				return ptr.PublicKey, ptr.Identifier, nil
			}
		}
		// fall through to the legacy form on any decode mismatch
	}

	if len(slug) < npubLength+2 {
		return "", "", fmt.Errorf("invalid app slug %q: too short", slug)
	}
	if !strings.HasPrefix(slug, "npub1") {
		return "", "", fmt.Errorf("invalid app slug %q: must start with npub or naddr", slug)
	}
	prefix, value, err := nip19.Decode(slug[:npubLength])
	if err != nil {
		return "", "", fmt.Errorf("decode npub: %w", err)
	}
	if prefix != "npub" {
		return "", "", fmt.Errorf("invalid app slug %q: not an npub", slug)
	}
	return value.(string), slug[npubLength+1:], nil
}
