package main

import (
	"log/slog"
	"strings"
	"sync"

	"sightdex/internal/answer"
	"sightdex/internal/config"
	"sightdex/internal/fetch"
	"sightdex/internal/identify"
	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logLevel(cfg *config.Config) string {
	if c.verboseFlag != nil && *c.verboseFlag {
		return "debug"
	}
	if cfg != nil {
		return cfg.Logging.Level
	}
	return "info"
}

// cliLogger builds a logger for interactive commands. Structured logs go to
// stderr so they never interleave with command results on stdout.
func (c *commandContext) cliLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:            c.logLevel(cfg),
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// pipeline bundles the services an in-process command needs.
type pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	fetcher    *fetch.Client
	catalog    *pokeapi.Client
	identifier *identify.Identifier
	answers    *answer.Service
}

// withPipeline builds the service stack, runs fn against it, and tears the
// stack down afterwards.
func (c *commandContext) withPipeline(fn func(*pipeline) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.cliLogger(cfg)
	if err != nil {
		return err
	}

	fetcher := fetch.New(cfg, logger)
	defer fetcher.Close()
	catalog, err := pokeapi.New(cfg, logger)
	if err != nil {
		return err
	}
	defer catalog.Close()
	identifier, err := identify.New(cfg, fetcher, catalog, logger)
	if err != nil {
		return err
	}

	return fn(&pipeline{
		cfg:        cfg,
		logger:     logger,
		fetcher:    fetcher,
		catalog:    catalog,
		identifier: identifier,
		answers:    answer.New(catalog, logger),
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
