package zapstore

import (
	"errors"

	"github.com/zapstore/zapstore-go/internal/lnurl"
	"github.com/zapstore/zapstore-go/internal/signer"
)

// Sentinel errors surfaced by client operations. Use errors.Is to test
// for them.
var (
	// ErrNoSigner is returned by publishing operations when the client
	// was built without a signer.
	ErrNoSigner = signer.ErrNoSigner

	// ErrNoLightningAddress is returned by Zap when the recipient's
	// profile carries neither a lud16 nor a lud06 entry.
	ErrNoLightningAddress = lnurl.ErrNoLightningAddress

	// ErrZapUnsupported is returned by Zap when the recipient's payment
	// endpoint exists but cannot take nostr zaps.
	ErrZapUnsupported = lnurl.ErrZapUnsupported

	// ErrProfileNotFound is returned by Zap when no kind-0 event for the
	// recipient could be found on the profile relays.
	ErrProfileNotFound = errors.New("no profile found for recipient")

	// ErrEmptyComment is returned by PublishComment for whitespace-only
	// content.
	ErrEmptyComment = errors.New("comment content is empty")
)

// AmountRangeError reports a zap amount outside the endpoint's accepted
// millisat range.
type AmountRangeError = lnurl.AmountRangeError

// InvoiceError reports an endpoint-side failure while requesting an
// invoice.
type InvoiceError = lnurl.InvoiceError
