package testsupport

import (
	"path/filepath"
	"testing"

	"sightdex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with a unique temp log directory per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Fetch.TimeoutSeconds = 5
	cfgVal.Fetch.AllowInsecureURLs = true

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHash sets the fingerprint method and size on the test config.
func WithHash(method string, size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Hash.Method = method
		b.cfg.Hash.Size = size
	}
}

// WithThreshold sets the similarity threshold on the test config.
func WithThreshold(value float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Match.SimilarityThreshold = value
	}
}

// WithCatalogHosts points the catalog, sprite, and mirror base URLs at test
// servers. Empty values keep the defaults.
func WithCatalogHosts(base, sprite, mirror string) ConfigOption {
	return func(b *configBuilder) {
		if base != "" {
			b.cfg.Catalog.BaseURL = base
		}
		if sprite != "" {
			b.cfg.Catalog.SpriteBaseURL = sprite
		}
		if mirror != "" {
			b.cfg.Catalog.MirrorBaseURL = mirror
		}
	}
}

// WithMirrorSources toggles mirror-host refinement sources.
func WithMirrorSources(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Match.IncludeSpriteMirror = enabled
	}
}

// WithSecureURLsOnly restores the https-only rule for query URLs, which the
// fixture relaxes by default so tests can use httptest servers.
func WithSecureURLsOnly() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fetch.AllowInsecureURLs = false
	}
}
