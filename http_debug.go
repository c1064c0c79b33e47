package zapstore

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// debugLoggingRequested reports whether LNURL HTTP traffic should be
// logged, controlled by the ZAPSTORE_DEBUG or DEBUG environment vars.
func debugLoggingRequested() bool {
	for _, key := range []string{"ZAPSTORE_DEBUG", "DEBUG"} {
		v := strings.ToLower(os.Getenv(key))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
	}
	return false
}

// debugTransport logs every LNURL request/response pair at debug level.
type debugTransport struct {
	next http.RoundTripper
	log  zerolog.Logger
}

func newDebugTransport(next http.RoundTripper, log zerolog.Logger) *debugTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &debugTransport{next: next, log: log.With().Str("component", "http").Logger()}
}

func (t *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	evt := t.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Dur("elapsed", time.Since(start))
	if err != nil {
		evt.Err(err).Msg("lnurl request failed")
		return nil, err
	}
	evt.Int("status", resp.StatusCode).Msg("lnurl request")
	return resp, nil
}
