package answer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sightdex/internal/answer"
	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"
	"sightdex/internal/services"
	"sightdex/internal/testsupport"
)

func newService(t *testing.T, catalogURL string) *answer.Service {
	t.Helper()

	cfg := testsupport.NewConfig(t,
		testsupport.WithCatalogHosts(catalogURL, "https://sprites.example/front", ""),
	)
	logger := logging.NewNop()
	client, err := pokeapi.New(cfg, logger)
	if err != nil {
		t.Fatalf("pokeapi.New: %v", err)
	}
	t.Cleanup(client.Close)
	return answer.New(client, logger)
}

func TestRespondRendersCreatureCard(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t, testsupport.FakeCreature{
		ID:         25,
		Name:       "pikachu",
		Types:      []string{"electric"},
		Abilities:  []string{"static"},
		Stats:      map[string]int{"hp": 35, "speed": 90},
		Flavor:     "Stores electricity.",
		SpriteURLs: []string{"https://sprites.example/25.png"},
	})
	svc := newService(t, catalog.URL)

	got, err := svc.Respond(context.Background(), "Tell me about Pikachu")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	want := strings.Join([]string{
		"## Pikachu ⚡",
		"Pikachu is a Electric-type Pokémon.",
		"",
		"Stores electricity.",
		"",
		"**Abilities:**",
		"- Static",
		"",
		"**Base Stats:**",
		"| HP | Attack | Defense | Sp. Atk | Sp. Def | Speed |",
		"|----|----|----|----|----|----|",
		"| 35 | - | - | - | - | 90 |",
		"",
		"![Pikachu](https://sprites.example/25.png)",
	}, "\n")
	if got != want {
		t.Fatalf("card mismatch\ngot:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestRespondPrefersMoreSpecificCandidates(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t,
		testsupport.FakeCreature{ID: 151, Name: "mew"},
		testsupport.FakeCreature{ID: 25, Name: "pikachu"},
	)
	svc := newService(t, catalog.URL)

	got, err := svc.Respond(context.Background(), "is mew or pikachu stronger")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.HasPrefix(got, "## Pikachu") {
		t.Fatalf("longest candidate should win, got:\n%s", got)
	}
}

func TestRespondTypeRoster(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t,
		testsupport.FakeCreature{ID: 1, Name: "bulbasaur", Types: []string{"grass", "poison"}},
		testsupport.FakeCreature{ID: 43, Name: "oddish", Types: []string{"grass"}},
		testsupport.FakeCreature{ID: 69, Name: "bellsprout", Types: []string{"grass"}},
	)
	svc := newService(t, catalog.URL)

	got, err := svc.Respond(context.Background(), "list 2 grass type pokemons")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	want := strings.Join([]string{
		"## Grass-type Pokémon 🌿",
		"",
		"Here are 2 grass type Pokémon:",
		"1. Bulbasaur",
		"2. Oddish",
	}, "\n")
	if got != want {
		t.Fatalf("roster mismatch\ngot:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestRespondUnknownTypeRoster(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t,
		testsupport.FakeCreature{ID: 1, Name: "bulbasaur", Types: []string{"grass"}},
	)
	svc := newService(t, catalog.URL)

	_, err := svc.Respond(context.Background(), "list 3 fire type pokemons")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty type roster, got %v", err)
	}
}

func TestRespondCatalogSlice(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t,
		testsupport.FakeCreature{ID: 25, Name: "pikachu"},
		testsupport.FakeCreature{ID: 1, Name: "bulbasaur"},
		testsupport.FakeCreature{ID: 4, Name: "charmander"},
	)
	svc := newService(t, catalog.URL)

	got, err := svc.Respond(context.Background(), "show me 2 pokemon")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	want := strings.Join([]string{
		"## Pokémon",
		"",
		"Here are 2 Pokémon:",
		"1. Pikachu",
		"2. Bulbasaur",
	}, "\n")
	if got != want {
		t.Fatalf("list mismatch\ngot:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestRespondGenericResource(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t)
	catalog.AddResource("move", "thunderbolt", map[string]any{"name": "thunderbolt", "power": 90})
	svc := newService(t, catalog.URL)

	got, err := svc.Respond(context.Background(), "what is the move thunderbolt")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got != "# Thunderbolt\n\nSource: **Move**" {
		t.Fatalf("unexpected resource card:\n%s", got)
	}
}

func TestRespondValidation(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t)
	svc := newService(t, catalog.URL)

	if _, err := svc.Respond(context.Background(), "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for a blank question, got %v", err)
	}
	if _, err := svc.Respond(context.Background(), "what is the"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation without search terms, got %v", err)
	}
}

func TestRespondNothingFound(t *testing.T) {
	catalog := testsupport.NewCatalogServer(t)
	svc := newService(t, catalog.URL)

	_, err := svc.Respond(context.Background(), "tell me about zorua")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
