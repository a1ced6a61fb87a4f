package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHash(); err != nil {
		return err
	}
	if err := c.validateMatch(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// validateHash checks only the size. Unknown method names are legal and fall
// back to phash at hash time, matching how the engine treats them.
func (c *Config) validateHash() error {
	if c.Hash.Size < 4 || c.Hash.Size > 32 {
		return errors.New("hash.size must be between 4 and 32 bits per side")
	}
	// The wavelet decomposition in the refine phase needs a power-of-two grid.
	if c.Hash.Size&(c.Hash.Size-1) != 0 {
		return errors.New("hash.size must be a power of two")
	}
	return nil
}

func (c *Config) validateMatch() error {
	if c.Match.SimilarityThreshold < 0 || c.Match.SimilarityThreshold > 1 {
		return errors.New("match.similarity_threshold must be between 0 and 1")
	}
	if c.Match.Concurrency > 128 {
		return errors.New("match.concurrency must not exceed 128")
	}
	if c.Match.TopK > c.Match.CatalogLimit {
		return errors.New("match.top_k must not exceed match.catalog_limit")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.TimeoutSeconds > 300 {
		return errors.New("fetch.timeout_seconds must not exceed 300")
	}
	return nil
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	for key, value := range map[string]string{
		"catalog.base_url":        c.Catalog.BaseURL,
		"catalog.sprite_base_url": c.Catalog.SpriteBaseURL,
		"catalog.mirror_base_url": c.Catalog.MirrorBaseURL,
	} {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL", key)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s must use http or https", key)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
