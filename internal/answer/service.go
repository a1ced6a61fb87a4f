package answer

import (
	"context"
	"fmt"
	"log/slog"

	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"
	"sightdex/internal/render"
	"sightdex/internal/services"
)

// Service answers questions using the catalog.
type Service struct {
	catalog pokeapi.Catalog
	logger  *slog.Logger
}

// New builds a Service around a catalog client.
func New(catalog pokeapi.Catalog, logger *slog.Logger) *Service {
	return &Service{
		catalog: catalog,
		logger:  logging.NewComponentLogger(logger, "answer"),
	}
}

// Respond resolves a free-form question into a markdown document.
func (s *Service) Respond(ctx context.Context, question string) (string, error) {
	q := normalize(question)
	if q == "" {
		return "", services.Wrap(services.ErrValidation, "answer", "respond", "provide a question", nil)
	}

	if isListRequest(q) {
		if md, handled, err := s.listResponse(ctx, q); handled {
			return md, err
		}
	}

	resources := resourcesByPriority(q)
	candidates := extractCandidates(q)
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrValidation, "answer", "respond", "could not extract any search terms from the question", nil)
	}

	for _, resource := range resources {
		for _, name := range candidates {
			md, found, err := s.lookup(ctx, resource, name)
			if err != nil {
				return "", err
			}
			if found {
				s.logger.Debug("answered question",
					logging.String("resource", resource),
					logging.String("record", name))
				return md, nil
			}
		}
	}
	return "", services.Wrap(services.ErrNotFound, "answer", "respond", "no matching record found; name the category (pokemon, berry, move, ability, item, type) and the record", nil)
}

// listResponse handles roster questions. It reports handled=false when the
// question should fall back to record lookup instead.
func (s *Service) listResponse(ctx context.Context, q string) (string, bool, error) {
	count := extractCount(q)

	if typeName := extractTypeName(q); typeName != "" {
		roster, err := s.catalog.TypeRoster(ctx, typeName)
		if err != nil {
			return "", true, services.Wrap(services.ErrCatalogUnavailable, "answer", "type roster", "load type "+typeName, err)
		}
		if roster == nil {
			return "", true, services.Wrap(services.ErrNotFound, "answer", "type roster", fmt.Sprintf("unknown type %q", typeName), nil)
		}
		if len(roster) == 0 {
			return "", true, services.Wrap(services.ErrNotFound, "answer", "type roster", fmt.Sprintf("no creatures found for type %q", typeName), nil)
		}
		if len(roster) > count {
			roster = roster[:count]
		}
		return render.TypeRosterList(typeName, roster), true, nil
	}

	entries, err := s.catalog.ListCatalog(ctx, count)
	if err != nil || len(entries) == 0 {
		s.logger.Debug("catalog roster unavailable, trying record lookup", logging.Error(err))
		return "", false, nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return render.CatalogList(names), true, nil
}

// lookup tries one resource and candidate name pair. Absent records are a
// miss, not an error.
func (s *Service) lookup(ctx context.Context, resource, name string) (string, bool, error) {
	if resource == "pokemon" {
		creature, err := s.catalog.Creature(ctx, name)
		if err != nil {
			return "", false, services.Wrap(services.ErrCatalogUnavailable, "answer", "lookup", "fetch creature "+name, err)
		}
		if creature == nil {
			return "", false, nil
		}
		species, err := s.catalog.Species(ctx, creature.ID)
		if err != nil {
			s.logger.Debug("species lookup failed", logging.String("name", name), logging.Error(err))
		}
		return render.PokemonCard(creature, species), true, nil
	}

	doc, err := s.catalog.Resource(ctx, resource, name)
	if err != nil {
		return "", false, services.Wrap(services.ErrCatalogUnavailable, "answer", "lookup", fmt.Sprintf("fetch %s %s", resource, name), err)
	}
	if doc == nil {
		return "", false, nil
	}
	title, _ := doc["name"].(string)
	return render.ResourceCard(resource, title), true, nil
}
