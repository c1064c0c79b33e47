package zapstore

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapstore/zapstore-go/internal/cache"
	"github.com/zapstore/zapstore-go/internal/relay"
	"github.com/zapstore/zapstore-go/internal/signer"
)

// Option customizes a Client during New.
type Option func(*Client) error

// WithRelays replaces the default relay set.
func WithRelays(rs RelaySet) Option {
	return func(c *Client) error {
		if len(rs.Catalog) == 0 {
			return fmt.Errorf("relay set has no catalog relays")
		}
		c.relays = rs
		return nil
	}
}

// WithTransport substitutes the relay transport. Mostly useful in tests.
func WithTransport(tr relay.Transport) Option {
	return func(c *Client) error {
		if tr == nil {
			return fmt.Errorf("transport cannot be nil")
		}
		c.tr = tr
		return nil
	}
}

// WithCache attaches a caller-owned cache. The client will not close it.
func WithCache(store Cache) Option {
	return func(c *Client) error {
		if store == nil {
			return fmt.Errorf("cache cannot be nil")
		}
		c.cache = store
		c.ownedCache = false
		return nil
	}
}

// WithCachePath opens a SQLite cache at path, creating parent
// directories as needed. The client closes it on Close.
func WithCachePath(path string) Option {
	return func(c *Client) error {
		store, err := cache.OpenSQLite(path)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		c.cache = store
		c.ownedCache = true
		return nil
	}
}

// WithMemoryCache attaches an in-process cache, useful for short-lived
// programs and tests.
func WithMemoryCache() Option {
	return func(c *Client) error {
		c.cache = cache.NewMemory()
		c.ownedCache = true
		return nil
	}
}

// WithSigner attaches a signer for publishing comments and zap requests.
func WithSigner(s Signer) Option {
	return func(c *Client) error {
		c.signer = s
		return nil
	}
}

// WithSignerKey builds a key signer from a hex or nsec-encoded secret.
func WithSignerKey(secret string) Option {
	return func(c *Client) error {
		key, err := signer.NewKey(secret)
		if err != nil {
			return fmt.Errorf("build signer: %w", err)
		}
		c.signer = key
		return nil
	}
}

// WithRenderer overrides the markdown renderer used for description
// HTML. The default renders GitHub-flavored markdown.
func WithRenderer(render func(string) string) Option {
	return func(c *Client) error {
		if render == nil {
			return fmt.Errorf("renderer cannot be nil")
		}
		c.render = render
		return nil
	}
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// WithHTTPClient replaces the HTTP client used for LNURL traffic.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.http = hc
		return nil
	}
}

// WithFetchTimeout bounds each relay fetch operation. Zero or negative
// values are rejected; the default is 8 seconds.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("fetch timeout must be positive, got %v", d)
		}
		c.fetchTimeout = d
		return nil
	}
}

// WithCorrelationTimeout bounds how long a zap attempt watches for its
// receipt. Zero, the default, keeps the subscription open until the
// attempt is cancelled or its context ends.
func WithCorrelationTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("correlation timeout cannot be negative, got %v", d)
		}
		c.correlationTimeout = d
		return nil
	}
}
