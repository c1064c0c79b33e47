package lnurl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/zapstore/zapstore-go/internal/types"
)

// InvoiceError reports a failed invoice request, carrying the reason the
// endpoint supplied when it declared one.
type InvoiceError struct {
	Reason string
	Status int
}

func (e *InvoiceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invoice request failed: %s", e.Reason)
	}
	return fmt.Sprintf("invoice request failed: status %d", e.Status)
}

// Client performs LNURL-pay HTTP calls. These run outside the relay fabric
// against the recipient's payment server.
type Client struct {
	http *http.Client
	log  zerolog.Logger
}

// NewClient wraps httpClient for LNURL calls.
func NewClient(httpClient *http.Client, log zerolog.Logger) *Client {
	return &Client{http: httpClient, log: log.With().Str("component", "lnurl").Logger()}
}

// discoveryResponse is the well-known LNURL-pay metadata document.
type discoveryResponse struct {
	Callback    string `json:"callback"`
	MinSendable int64  `json:"minSendable"`
	MaxSendable int64  `json:"maxSendable"`
	AllowsNostr bool   `json:"allowsNostr"`
	NostrPubKey string `json:"nostrPubkey"`
}

// ResolveEndpoint fetches the discovery document for the profile's payment
// identifier and validates zap capability: the endpoint must advertise
// allowsNostr and carry a correlation pubkey.
func (c *Client) ResolveEndpoint(ctx context.Context, p types.Profile) (*types.ZapEndpoint, error) {
	endpoint, err := DiscoveryURL(p)
	if err != nil {
		return nil, err
	}
	return c.resolveFrom(ctx, endpoint)
}

func (c *Client) resolveFrom(ctx context.Context, endpoint string) (*types.ZapEndpoint, error) {
	var disc discoveryResponse
	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("lnurl discovery: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("lnurl discovery: status %d", resp.StatusCode))
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &disc); err != nil {
			return backoff.Permanent(fmt.Errorf("lnurl discovery: decode: %w", err))
		}
		return nil
	}

	// The discovery GET is idempotent, so transient failures get a short
	// retry budget. The invoice request below never retries.
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		return nil, fmt.Errorf("resolve endpoint %s: %w", endpoint, err)
	}

	if !disc.AllowsNostr || disc.NostrPubKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrZapUnsupported, endpoint)
	}

	ep := &types.ZapEndpoint{
		Callback:    disc.Callback,
		MinSendable: disc.MinSendable,
		MaxSendable: disc.MaxSendable,
		AllowsNostr: disc.AllowsNostr,
		NostrPubKey: disc.NostrPubKey,
		LNURL:       endpoint,
	}
	if ep.MinSendable <= 0 {
		ep.MinSendable = 1000
	}
	if ep.MaxSendable <= 0 {
		ep.MaxSendable = 100_000_000_000
	}
	c.log.Debug().Str("callback", ep.Callback).Int64("min", ep.MinSendable).Int64("max", ep.MaxSendable).Msg("endpoint resolved")
	return ep, nil
}

// invoiceResponse is the callback response; on failure the endpoint sets
// status "ERROR" and a reason.
type invoiceResponse struct {
	Status         string          `json:"status"`
	Reason         string          `json:"reason"`
	PaymentRequest string          `json:"pr"`
	SuccessAction  json.RawMessage `json:"successAction"`
}

// RequestInvoice submits the signed zap request and the amount to the
// endpoint callback and returns the invoice it issues.
func (c *Client) RequestInvoice(ctx context.Context, callback string, signedRequest []byte, amountMsat int64) (*types.Invoice, error) {
	u, err := url.Parse(callback)
	if err != nil {
		return nil, fmt.Errorf("invoice callback %q: %w", callback, err)
	}
	q := u.Query()
	q.Set("amount", fmt.Sprintf("%d", amountMsat))
	q.Set("nostr", string(signedRequest))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoice request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("invoice request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &InvoiceError{Status: resp.StatusCode}
	}

	var ir invoiceResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		return nil, fmt.Errorf("invoice request: decode: %w", err)
	}
	if ir.Status == "ERROR" {
		return nil, &InvoiceError{Reason: ir.Reason, Status: resp.StatusCode}
	}
	if ir.PaymentRequest == "" {
		return nil, &InvoiceError{Reason: "no invoice returned from endpoint", Status: resp.StatusCode}
	}

	c.log.Debug().Dur("elapsed", time.Since(start)).Msg("invoice issued")
	inv := &types.Invoice{PaymentRequest: ir.PaymentRequest}
	if len(ir.SuccessAction) > 0 {
		var sa any
		if err := json.Unmarshal(ir.SuccessAction, &sa); err == nil {
			inv.SuccessAction = sa
		}
	}
	return inv, nil
}
