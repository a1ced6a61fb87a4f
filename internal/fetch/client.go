package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"sightdex/internal/config"
	"sightdex/internal/imagehash"
	"sightdex/internal/logging"
	"sightdex/internal/services"
)

const (
	// Sprite hosts reject default Go user agents, so requests present a
	// browser identity the hosts are known to serve.
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	acceptHeader = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
)

// ErrPayloadTooLarge marks remote payloads that exceed the configured cap.
var ErrPayloadTooLarge = errors.New("payload exceeds size limit")

// Client retrieves remote images and computes sprite fingerprints, caching
// both with a TTL so repeated identifications stay off the wire.
type Client struct {
	httpClient *http.Client
	payloads   *cache.Cache
	prints     *cache.Cache
	maxBytes   int64
	allowHTTP  bool
	logger     *slog.Logger

	payloadHits   atomic.Int64
	payloadMisses atomic.Int64
	printHits     atomic.Int64
	printMisses   atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a fetch client using the config's timeout, payload cap, and
// cache TTL.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	ttl := cfg.CacheTTL()
	client := &Client{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout()},
		payloads:   cache.New(ttl, ttl),
		prints:     cache.New(ttl, ttl),
		maxBytes:   cfg.Fetch.MaxBytes,
		allowHTTP:  cfg.Fetch.AllowInsecureURLs,
		logger:     logging.NewComponentLogger(logger, "fetch"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchBytes retrieves a remote payload, serving repeats from the TTL cache.
// The size cap is enforced while reading, so an oversized body is abandoned as
// soon as the limit passes rather than after the transfer completes. Transport
// failures, non-200 statuses, and oversized payloads all classify as
// services.ErrUpstreamUnavailable. Failed fetches are not cached.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if cached, ok := c.payloads.Get(rawURL); ok {
		c.payloadHits.Add(1)
		return cached.([]byte), nil
	}
	c.payloadMisses.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Referer", rawURL)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("%w: execute request (latency=%v): %w", services.ErrUpstreamUnavailable, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: remote host returned %d (latency=%v)", services.ErrUpstreamUnavailable, resp.StatusCode, latency)
	}
	if resp.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("%w: %w: declared length %d over cap %d", services.ErrUpstreamUnavailable, ErrPayloadTooLarge, resp.ContentLength, c.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", services.ErrUpstreamUnavailable, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: %w: body over cap %d", services.ErrUpstreamUnavailable, ErrPayloadTooLarge, c.maxBytes)
	}

	c.payloads.Set(rawURL, data, cache.DefaultExpiration)
	return data, nil
}

// Fingerprint fetches a sprite and hashes it under the engine's method and
// size. The second result reports availability: any fetch or decode failure
// makes the sprite unavailable rather than scoring it, and the reason is
// logged at debug level. Successful fingerprints are cached per method, size,
// and URL.
func (c *Client) Fingerprint(ctx context.Context, engine *imagehash.Engine, rawURL string) (*imagehash.Fingerprint, bool) {
	key := fingerprintKey(engine.Method(), engine.Size(), rawURL)
	if cached, ok := c.prints.Get(key); ok {
		c.printHits.Add(1)
		return cached.(*imagehash.Fingerprint), true
	}
	c.printMisses.Add(1)

	data, err := c.FetchBytes(ctx, rawURL)
	if err != nil {
		c.logger.Debug("sprite fetch failed", logging.String("url", rawURL), logging.Error(err))
		return nil, false
	}
	fingerprint, err := engine.FingerprintBytes(data)
	if err != nil {
		c.logger.Debug("sprite decode failed", logging.String("url", rawURL), logging.Error(err))
		return nil, false
	}

	c.prints.Set(key, fingerprint, cache.DefaultExpiration)
	return fingerprint, true
}

func fingerprintKey(method imagehash.Method, size int, rawURL string) string {
	return fmt.Sprintf("sprite::%s::%d::%s", method, size, rawURL)
}

// Stats reports cache occupancy and hit counters.
type Stats struct {
	PayloadEntries     int   `json:"payload_entries"`
	FingerprintEntries int   `json:"fingerprint_entries"`
	PayloadHits        int64 `json:"payload_hits"`
	PayloadMisses      int64 `json:"payload_misses"`
	FingerprintHits    int64 `json:"fingerprint_hits"`
	FingerprintMisses  int64 `json:"fingerprint_misses"`
}

// Stats returns a snapshot of cache state.
func (c *Client) Stats() Stats {
	return Stats{
		PayloadEntries:     c.payloads.ItemCount(),
		FingerprintEntries: c.prints.ItemCount(),
		PayloadHits:        c.payloadHits.Load(),
		PayloadMisses:      c.payloadMisses.Load(),
		FingerprintHits:    c.printHits.Load(),
		FingerprintMisses:  c.printMisses.Load(),
	}
}

// Close releases cached payloads and fingerprints.
func (c *Client) Close() {
	c.payloads.Flush()
	c.prints.Flush()
}
