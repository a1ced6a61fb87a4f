package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"sightdex/internal/config"
	"sightdex/internal/logging"
)

// Catalog defines the remote catalog operations the matcher and responders
// depend on.
type Catalog interface {
	ListCatalog(ctx context.Context, limit int) ([]CatalogEntry, error)
	Creature(ctx context.Context, name string) (*Creature, error)
	Species(ctx context.Context, id int) (*Species, error)
	Resource(ctx context.Context, resource, name string) (map[string]any, error)
	TypeRoster(ctx context.Context, typeName string) ([]string, error)
	SpriteURLs(creature *Creature, limit int, includeMirror bool) []string
	PrimarySpriteURL(id int) string
}

// Client talks to the creature catalog API. Successful JSON responses are
// cached with a TTL; missing records and failures are re-fetched.
type Client struct {
	baseURL       string
	spriteBaseURL string
	mirrorBaseURL string
	httpClient    *http.Client
	responses     *cache.Cache
	logger        *slog.Logger
}

var _ Catalog = (*Client)(nil)

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

// New creates a catalog client from the configured endpoints.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Catalog.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	ttl := cfg.CacheTTL()
	client := &Client{
		baseURL:       baseURL,
		spriteBaseURL: strings.TrimRight(strings.TrimSpace(cfg.Catalog.SpriteBaseURL), "/"),
		mirrorBaseURL: strings.TrimRight(strings.TrimSpace(cfg.Catalog.MirrorBaseURL), "/"),
		httpClient:    &http.Client{Timeout: cfg.FetchTimeout()},
		responses:     cache.New(ttl, ttl),
		logger:        logging.NewComponentLogger(logger, "pokeapi"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Close releases cached responses.
func (c *Client) Close() {
	c.responses.Flush()
}

// CacheLen reports the number of cached catalog responses.
func (c *Client) CacheLen() int {
	return c.responses.ItemCount()
}

var catalogIDPattern = regexp.MustCompile(`/pokemon/(\d+)/?$`)

type catalogPage struct {
	Count   int             `json:"count"`
	Results []NamedResource `json:"results"`
}

// ListCatalog fetches the creature index, keeping discovery order. Entries
// whose URL has no parsable numeric ID are dropped.
func (c *Client) ListCatalog(ctx context.Context, limit int) ([]CatalogEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/pokemon?limit=%d&offset=0", c.baseURL, limit)

	var page catalogPage
	found, err := c.getJSON(ctx, endpoint, &page)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("list catalog: endpoint %s not found", endpoint)
	}

	entries := make([]CatalogEntry, 0, len(page.Results))
	for _, result := range page.Results {
		match := catalogIDPattern.FindStringSubmatch(result.URL)
		if match == nil {
			c.logger.Debug("catalog entry without numeric id skipped",
				logging.String("name", result.Name),
				logging.String("url", result.URL),
			)
			continue
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		entries = append(entries, CatalogEntry{ID: id, Name: result.Name, URL: result.URL})
	}
	return entries, nil
}

// Creature fetches one detail record by name or numeric ID string. A missing
// record returns (nil, nil) so callers can treat absence as a non-error.
func (c *Client) Creature(ctx context.Context, name string) (*Creature, error) {
	slug := strings.ToLower(strings.TrimSpace(name))
	if slug == "" {
		return nil, errors.New("creature name required")
	}
	endpoint := c.baseURL + "/pokemon/" + url.PathEscape(slug)

	var creature Creature
	found, err := c.getJSON(ctx, endpoint, &creature)
	if err != nil {
		return nil, fmt.Errorf("fetch creature %q: %w", slug, err)
	}
	if !found {
		return nil, nil
	}
	return &creature, nil
}

// Species fetches the species record for a creature ID. A missing record
// returns (nil, nil).
func (c *Client) Species(ctx context.Context, id int) (*Species, error) {
	if id <= 0 {
		return nil, fmt.Errorf("species id %d out of range", id)
	}
	endpoint := fmt.Sprintf("%s/pokemon-species/%d", c.baseURL, id)

	var species Species
	found, err := c.getJSON(ctx, endpoint, &species)
	if err != nil {
		return nil, fmt.Errorf("fetch species %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &species, nil
}

// Resource fetches an arbitrary record such as a move, ability, or item as a
// generic document. A missing record returns (nil, nil).
func (c *Client) Resource(ctx context.Context, resource, name string) (map[string]any, error) {
	resource = strings.ToLower(strings.TrimSpace(resource))
	slug := strings.ToLower(strings.TrimSpace(name))
	if resource == "" || slug == "" {
		return nil, errors.New("resource and name required")
	}
	endpoint := c.baseURL + "/" + url.PathEscape(resource) + "/" + url.PathEscape(slug)

	var doc map[string]any
	found, err := c.getJSON(ctx, endpoint, &doc)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %q: %w", resource, slug, err)
	}
	if !found {
		return nil, nil
	}
	return doc, nil
}

type typePage struct {
	Pokemon []struct {
		Pokemon NamedResource `json:"pokemon"`
	} `json:"pokemon"`
}

// TypeRoster returns the names of creatures having the given elemental type,
// in catalog order. An unknown type returns an empty roster.
func (c *Client) TypeRoster(ctx context.Context, typeName string) ([]string, error) {
	slug := strings.ToLower(strings.TrimSpace(typeName))
	if slug == "" {
		return nil, errors.New("type name required")
	}
	endpoint := c.baseURL + "/type/" + url.PathEscape(slug)

	var page typePage
	found, err := c.getJSON(ctx, endpoint, &page)
	if err != nil {
		return nil, fmt.Errorf("fetch type %q: %w", slug, err)
	}
	if !found {
		return nil, nil
	}
	names := make([]string, 0, len(page.Pokemon))
	for _, slot := range page.Pokemon {
		if slot.Pokemon.Name != "" {
			names = append(names, slot.Pokemon.Name)
		}
	}
	return names, nil
}

type cachedResponse struct {
	body []byte
}

// getJSON performs a cached GET. The first result is false when the endpoint
// returned 404; only successful payloads enter the cache.
func (c *Client) getJSON(ctx context.Context, endpoint string, dst any) (bool, error) {
	if cached, ok := c.responses.Get(endpoint); ok {
		return true, json.Unmarshal(cached.(cachedResponse).body, dst)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return false, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("catalog returned %d (latency=%v)", resp.StatusCode, latency)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	c.responses.Set(endpoint, cachedResponse{body: body}, cache.DefaultExpiration)
	return true, nil
}
