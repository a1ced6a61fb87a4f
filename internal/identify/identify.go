package identify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sightdex/internal/config"
	"sightdex/internal/fetch"
	"sightdex/internal/imagehash"
	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"
	"sightdex/internal/services"

	"golang.org/x/sync/semaphore"
)

// RefineMethods lists the fingerprint algorithms the refinement phase runs
// for every candidate, in evaluation order.
var RefineMethods = []imagehash.Method{
	imagehash.MethodPerception,
	imagehash.MethodDifference,
	imagehash.MethodWavelet,
}

// Match is the outcome of an identification run.
type Match struct {
	Name             string                   `json:"name"`
	ID               int                      `json:"id"`
	Similarity       float64                  `json:"similarity"`
	Classification   imagehash.Classification `json:"classification"`
	Refined          bool                     `json:"refined"`
	CoarseSimilarity float64                  `json:"coarse_similarity"`
	Scanned          int                      `json:"scanned"`
	Elapsed          time.Duration            `json:"elapsed"`
}

// Identifier performs two-phase catalog identification of query images.
type Identifier struct {
	engine           *imagehash.Engine
	fetcher          *fetch.Client
	catalog          pokeapi.Catalog
	logger           *slog.Logger
	threshold        float64
	catalogLimit     int
	topK             int
	refineMaxSources int
	concurrency      int64
	includeMirror    bool
}

// New builds an Identifier from configuration plus shared fetch and catalog
// clients. The clients stay owned by the caller.
func New(cfg *config.Config, fetcher *fetch.Client, catalog pokeapi.Catalog, logger *slog.Logger) (*Identifier, error) {
	engine, err := imagehash.NewEngine(cfg.Hash.Method, cfg.Hash.Size)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "identify", "new", "build fingerprint engine", err)
	}
	concurrency := cfg.Match.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Identifier{
		engine:           engine,
		fetcher:          fetcher,
		catalog:          catalog,
		logger:           logging.NewComponentLogger(logger, "identify"),
		threshold:        cfg.Match.SimilarityThreshold,
		catalogLimit:     cfg.Match.CatalogLimit,
		topK:             cfg.Match.TopK,
		refineMaxSources: cfg.Match.RefineMaxSources,
		concurrency:      int64(concurrency),
		includeMirror:    cfg.Match.IncludeSpriteMirror,
	}, nil
}

// Threshold reports the similarity cutoff the identifier classifies against.
func (i *Identifier) Threshold() float64 {
	return i.threshold
}

// ResolveQuery normalizes the two input modes into raw image bytes. Exactly
// one of fileBytes or rawURL must carry the query; URLs are sanitized,
// checked against the transport policy, and downloaded.
func (i *Identifier) ResolveQuery(ctx context.Context, fileBytes []byte, rawURL string) ([]byte, error) {
	cleaned := fetch.SanitizeURL(rawURL)
	switch {
	case len(fileBytes) > 0 && cleaned != "":
		return nil, services.Wrap(services.ErrInputConflict, "identify", "resolve query", "provide either an image upload or a url, not both", nil)
	case len(fileBytes) > 0:
		return fileBytes, nil
	case cleaned == "":
		return nil, services.Wrap(services.ErrInputConflict, "identify", "resolve query", "provide an image upload or a url", nil)
	}
	if err := i.fetcher.CheckQueryURL(cleaned); err != nil {
		return nil, services.Wrap(services.ErrValidation, "identify", "resolve query", "query url rejected", err)
	}
	data, err := i.fetcher.FetchBytes(ctx, cleaned)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "identify", "resolve query", fmt.Sprintf("fetch image from %s", cleaned), err)
	}
	return data, nil
}

// Identify matches the query image bytes against the catalog.
func (i *Identifier) Identify(ctx context.Context, data []byte) (*Match, error) {
	start := time.Now()

	query, err := i.engine.FingerprintBytes(data)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidImage, "identify", "fingerprint query", "decode query image", err)
	}

	entries, err := i.catalog.ListCatalog(ctx, i.catalogLimit)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalogUnavailable, "identify", "list catalog", "load candidate index", err)
	}
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrNoMatch, "identify", "list catalog", "catalog returned no candidates", nil)
	}

	sem := semaphore.NewWeighted(i.concurrency)
	ranked := i.coarseScan(ctx, sem, query, entries)
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrTimeout, "identify", "coarse scan", "search aborted", err)
	}
	if len(ranked) == 0 {
		return nil, services.Wrap(services.ErrNoMatch, "identify", "coarse scan", "no candidate produced a usable fingerprint", nil)
	}

	best := ranked[0]
	match := &Match{
		Name:             best.name,
		ID:               best.id,
		Similarity:       best.similarity,
		CoarseSimilarity: best.similarity,
		Scanned:          len(entries),
	}

	if best.similarity < i.threshold {
		i.logger.Debug("coarse leader below threshold, refining",
			logging.String("name", best.name),
			logging.Float64("similarity", best.similarity),
			logging.Int("candidates", len(ranked)))
		if refined, ok := i.refineScan(ctx, sem, data, ranked); ok && refined.similarity > best.similarity {
			match.Name = refined.name
			match.ID = refined.id
			match.Similarity = refined.similarity
			match.Refined = true
		}
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrTimeout, "identify", "refine scan", "search aborted", err)
		}
	}

	match.Classification = imagehash.Classify(match.Similarity, i.threshold)
	match.Elapsed = time.Since(start)
	i.logger.Info("identified query image",
		logging.String("name", match.Name),
		logging.Float64("similarity", match.Similarity),
		logging.Bool("refined", match.Refined),
		logging.Int("scanned", match.Scanned),
		logging.Duration("elapsed", match.Elapsed))
	return match, nil
}
