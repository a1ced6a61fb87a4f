package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// Hash contains fingerprint computation settings.
type Hash struct {
	Method string `toml:"method"`
	Size   int    `toml:"size"`
}

// Match contains two-phase search settings.
type Match struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	CatalogLimit        int     `toml:"catalog_limit"`
	TopK                int     `toml:"top_k"`
	Concurrency         int     `toml:"concurrency"`
	RefineMaxSources    int     `toml:"refine_max_sources"`
	IncludeSpriteMirror bool    `toml:"include_sprite_mirror"`
}

// Fetch contains remote retrieval and cache settings.
type Fetch struct {
	TimeoutSeconds    int   `toml:"timeout_seconds"`
	MaxBytes          int64 `toml:"max_bytes"`
	CacheTTLMinutes   int   `toml:"cache_ttl_minutes"`
	AllowInsecureURLs bool  `toml:"allow_insecure_urls"`
}

// Server contains HTTP API settings.
type Server struct {
	Bind           string   `toml:"bind"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	CORSOrigins    []string `toml:"cors_origins"`
}

// Catalog contains the upstream catalog and sprite host addresses.
type Catalog struct {
	BaseURL       string `toml:"base_url"`
	SpriteBaseURL string `toml:"sprite_base_url"`
	MirrorBaseURL string `toml:"mirror_base_url"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for sightdex.
//
// Configuration sections by subsystem:
//   - Paths: log directory
//   - Hash: fingerprint algorithm and bit size
//   - Match: thresholds, candidate caps, and fan-out limits
//   - Fetch: remote retrieval timeouts, payload caps, cache TTL
//   - Server: API bind address, upload limits, CORS
//   - Catalog: upstream catalog and sprite host base URLs
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Hash    Hash    `toml:"hash"`
	Match   Match   `toml:"match"`
	Fetch   Fetch   `toml:"fetch"`
	Server  Server  `toml:"server"`
	Catalog Catalog `toml:"catalog"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sightdex/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. Environment overrides for the
// recognized option names are applied after file decode.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sightdex.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for service operation.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// FetchTimeout returns the per-request remote fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// CacheTTL returns the expiry applied to byte, fingerprint, and catalog caches.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Fetch.CacheTTLMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
