package main

import (
	"context"

	"sightdex/internal/identify"
	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"
	"sightdex/internal/render"
)

// matchReport enriches a match with catalog detail and renders the markdown
// report. Lookups are best effort; the identification already succeeded.
func matchReport(ctx context.Context, p *pipeline, match *identify.Match) string {
	creature, err := p.catalog.Creature(ctx, match.Name)
	if err != nil {
		p.logger.Warn("creature detail lookup failed",
			logging.String("name", match.Name), logging.Error(err))
	}
	var species *pokeapi.Species
	if creature != nil {
		species, err = p.catalog.Species(ctx, creature.ID)
		if err != nil {
			p.logger.Debug("species lookup failed",
				logging.String("name", match.Name), logging.Error(err))
		}
	}
	return render.IdentifyReport(creature, species, match.Classification, match.Similarity)
}
