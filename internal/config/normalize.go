package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHash()
	c.normalizeMatch()
	c.normalizeFetch()
	c.normalizeServer()
	c.normalizeCatalog()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeHash() {
	if value, ok := os.LookupEnv("SIGHTDEX_HASH_METHOD"); ok && strings.TrimSpace(value) != "" {
		c.Hash.Method = value
	}
	c.Hash.Method = strings.ToLower(strings.TrimSpace(c.Hash.Method))
	if c.Hash.Method == "" {
		c.Hash.Method = defaultHashMethod
	}
	if value, ok := os.LookupEnv("SIGHTDEX_HASH_SIZE"); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && parsed > 0 {
			c.Hash.Size = parsed
		}
	}
	if c.Hash.Size <= 0 {
		c.Hash.Size = defaultHashSize
	}
}

func (c *Config) normalizeMatch() {
	if value, ok := os.LookupEnv("SIGHTDEX_SIMILARITY_THRESHOLD"); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			c.Match.SimilarityThreshold = parsed
		}
	}
	if c.Match.CatalogLimit <= 0 {
		c.Match.CatalogLimit = defaultCatalogLimit
	}
	if c.Match.TopK <= 0 {
		c.Match.TopK = defaultTopK
	}
	if c.Match.Concurrency <= 0 {
		c.Match.Concurrency = defaultConcurrency
	}
	if c.Match.RefineMaxSources <= 0 {
		c.Match.RefineMaxSources = defaultRefineMaxSources
	}
}

func (c *Config) normalizeFetch() {
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeoutSeconds
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = defaultFetchMaxBytes
	}
	if c.Fetch.CacheTTLMinutes <= 0 {
		c.Fetch.CacheTTLMinutes = defaultCacheTTLMinutes
	}
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv("SIGHTDEX_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Server.Bind = value
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultAPIBind
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	origins := make([]string, 0, len(c.Server.CORSOrigins))
	for _, origin := range c.Server.CORSOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.Server.CORSOrigins = origins
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = trimBaseURL(c.Catalog.BaseURL, defaultCatalogBaseURL)
	c.Catalog.SpriteBaseURL = trimBaseURL(c.Catalog.SpriteBaseURL, defaultSpriteBaseURL)
	c.Catalog.MirrorBaseURL = trimBaseURL(c.Catalog.MirrorBaseURL, defaultMirrorBaseURL)
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("SIGHTDEX_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}

func trimBaseURL(value, fallback string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}
