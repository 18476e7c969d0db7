package agents

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RemoteMetadataHttpOptions configures a remote agent's HTTP client per
// §4.C: base address, timeout (default 30s), a rate limit (default 10
// requests / 1s), optional extra headers, opt-in insecure TLS.
type RemoteMetadataHttpOptions struct {
	BaseAddress   string
	Timeout       time.Duration
	MaxRequests   int // 0 means "no rate limiting", per the open question in §9
	Per           time.Duration
	Headers       map[string]string
	InsecureTLS   bool
}

// DefaultRemoteMetadataHttpOptions returns the spec's stated defaults.
func DefaultRemoteMetadataHttpOptions(baseAddress string) RemoteMetadataHttpOptions {
	return RemoteMetadataHttpOptions{
		BaseAddress: baseAddress,
		Timeout:     30 * time.Second,
		MaxRequests: 10,
		Per:         time.Second,
	}
}

// RemoteClient is a rate-limited, timeout-bound HTTP client for remote
// agents; only requests sent through Do are rate-limited and get the
// configured headers. When MaxRequests is 0 the limiter is unset and Wait is
// a no-op — per the open question in §9, bursts are not tracked in that case.
type RemoteClient struct {
	opts    RemoteMetadataHttpOptions
	http    *http.Client
	limiter *rate.Limiter
}

func NewRemoteClient(opts RemoteMetadataHttpOptions) *RemoteClient {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	transport := http.DefaultTransport
	if opts.InsecureTLS {
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}} //nolint:gosec // opt-in per RemoteMetadataHttpOptions.InsecureTLS
	}

	c := &RemoteClient{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout, Transport: transport},
	}
	if opts.MaxRequests > 0 {
		per := opts.Per
		if per <= 0 {
			per = time.Second
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(opts.MaxRequests)/per.Seconds()), opts.MaxRequests)
	}
	return c
}

// Do applies headers, waits on the rate limiter if configured, and executes
// req with the client's timeout bound via ctx.
func (c *RemoteClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}
	return c.http.Do(req.WithContext(ctx))
}

// HTTPClient exposes the underlying *http.Client for SDKs (Subsonic) that
// take one directly instead of a Do-style hook. Requests made with it carry
// the timeout but bypass the rate limiter and the configured headers.
func (c *RemoteClient) HTTPClient() *http.Client { return c.http }
