package zapstore

import (
	"context"

	"github.com/zapstore/zapstore-go/internal/zap"
)

// ZapTargetForApp builds the zap target for an app: payment to its
// publisher, correlated against the app's coordinate and event id.
func ZapTargetForApp(app App, extraRelays ...string) ZapTarget {
	return ZapTarget{
		Recipient: app.PubKey,
		Address:   app.Address(),
		EventID:   app.ID,
		Relays:    extraRelays,
	}
}

// Zap pays amountSats to the target's recipient over lightning. It
// resolves the recipient's LNURL endpoint, obtains an invoice for a
// signed zap request, and returns a PendingZap whose Receipts channel
// delivers the correlated receipt once the invoice is paid.
//
// Endpoint, bounds and invoice failures return synchronously; consult
// errors.Is against ErrNoLightningAddress, ErrZapUnsupported and the
// AmountRangeError and InvoiceError types. A receipt that never arrives
// is not an error: the attempt stays correlating until Cancel, the
// context ends, or the configured correlation timeout fires.
func (c *Client) Zap(ctx context.Context, target ZapTarget, amountSats int64, comment string) (*PendingZap, error) {
	pending, err := c.zaps.Zap(ctx, target, amountSats, comment, zap.Options{
		CorrelationTimeout: c.correlationTimeout,
		OnMatch: func(m ZapMatch) {
			zapMatchesTotal.WithLabelValues(m.Rule).Inc()
		},
	})
	if err != nil {
		zapAttemptsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	zapAttemptsTotal.WithLabelValues("invoice").Inc()
	return pending, nil
}
