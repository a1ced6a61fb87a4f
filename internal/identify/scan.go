package identify

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"sightdex/internal/imagehash"
	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"

	"golang.org/x/sync/semaphore"
)

// candidate is one catalog entry with its best similarity so far.
type candidate struct {
	name       string
	id         int
	similarity float64
}

// coarseScan fingerprints every candidate's primary sprite and ranks the
// survivors by similarity, best first. Ties keep catalog discovery order.
// Candidates whose sprite cannot be fetched or hashed are dropped.
func (i *Identifier) coarseScan(ctx context.Context, sem *semaphore.Weighted, query *imagehash.Fingerprint, entries []pokeapi.CatalogEntry) []candidate {
	scores := make([]float64, len(entries))
	usable := make([]bool, len(entries))

	sampler := logging.NewProgressSampler(10)
	var done atomic.Int64

	var wg sync.WaitGroup
	for idx := range entries {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() {
				n := done.Add(1)
				if sampler.ShouldLog(float64(n)/float64(len(entries))*100, "coarse") {
					i.logger.Debug("coarse scan progress",
						logging.Int64("scanned", n),
						logging.Int("candidates", len(entries)))
				}
			}()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			fp, ok := i.fetcher.Fingerprint(ctx, i.engine, i.catalog.PrimarySpriteURL(entries[idx].ID))
			sem.Release(1)
			if !ok {
				return
			}
			sim, err := imagehash.Similarity(query, fp)
			if err != nil {
				return
			}
			scores[idx] = sim
			usable[idx] = true
		}(idx)
	}
	wg.Wait()

	ranked := make([]candidate, 0, len(entries))
	for idx := range entries {
		if !usable[idx] {
			continue
		}
		ranked = append(ranked, candidate{name: entries[idx].Name, id: entries[idx].ID, similarity: scores[idx]})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].similarity > ranked[b].similarity })
	if i.topK > 0 && len(ranked) > i.topK {
		ranked = ranked[:i.topK]
	}
	return ranked
}

// refineScan rehashes the query with every refinement method and crop
// variant, then scores each ranked candidate against its full sprite set.
// It reports false when no refined comparison could be made.
func (i *Identifier) refineScan(ctx context.Context, sem *semaphore.Weighted, data []byte, ranked []candidate) (candidate, bool) {
	variants, err := i.engine.Variants(data, RefineMethods, nil)
	if err != nil || len(variants) == 0 {
		i.logger.Debug("refinement skipped, no query variants", logging.Error(err))
		return candidate{}, false
	}
	engines := make(map[imagehash.Method]*imagehash.Engine, len(RefineMethods))
	for _, method := range RefineMethods {
		engines[method] = i.engine.WithMethod(method)
	}

	scores := make([]float64, len(ranked))
	var wg sync.WaitGroup
	for idx := range ranked {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			scores[idx] = i.refineCandidate(ctx, sem, engines, variants, ranked[idx])
		}(idx)
	}
	wg.Wait()

	bestIdx := 0
	for idx := 1; idx < len(ranked); idx++ {
		if scores[idx] > scores[bestIdx] {
			bestIdx = idx
		}
	}
	best := ranked[bestIdx]
	best.similarity = scores[bestIdx]
	return best, true
}

// refineCandidate scores one candidate as the maximum similarity over every
// source url, method, and query variant. Sources that cannot be fetched or
// hashed contribute nothing. The payload cache keeps the url by method loop
// to one download per url.
func (i *Identifier) refineCandidate(ctx context.Context, sem *semaphore.Weighted, engines map[imagehash.Method]*imagehash.Engine, variants map[imagehash.Method][]*imagehash.Fingerprint, cand candidate) float64 {
	detail, err := i.catalog.Creature(ctx, cand.name)
	if err != nil || detail == nil {
		return 0
	}
	urls := i.catalog.SpriteURLs(detail, i.refineMaxSources, i.includeMirror)

	best := 0.0
	for _, url := range urls {
		for _, method := range RefineMethods {
			queries := variants[method]
			if len(queries) == 0 {
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				return best
			}
			fp, ok := i.fetcher.Fingerprint(ctx, engines[method], url)
			sem.Release(1)
			if !ok {
				// Later methods would refetch the same dead url; the
				// payload cache only keeps successes.
				break
			}
			for _, query := range queries {
				sim, err := imagehash.Similarity(query, fp)
				if err != nil {
					continue
				}
				if sim > best {
					best = sim
				}
			}
		}
	}
	return best
}
