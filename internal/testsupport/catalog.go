package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeCreature is one record served by a CatalogServer.
type FakeCreature struct {
	ID        int
	Name      string
	Types     []string
	Abilities []string
	Stats     map[string]int
	Flavor    string
	// SpriteURLs are embedded into the detail's sprites document in order.
	SpriteURLs []string
}

// CatalogServer fakes the remote catalog API over httptest.
type CatalogServer struct {
	*httptest.Server

	mu        sync.Mutex
	creatures []FakeCreature
	resources map[string]map[string]any
}

// NewCatalogServer starts a fake catalog serving the given creatures. The
// server shuts down with the test.
func NewCatalogServer(t testing.TB, creatures ...FakeCreature) *CatalogServer {
	t.Helper()

	s := &CatalogServer{
		creatures: creatures,
		resources: make(map[string]map[string]any),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Server.Close)
	return s
}

// AddResource registers a generic document under /{resource}/{name}.
func (s *CatalogServer) AddResource(resource, name string, doc map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resources[resource] == nil {
		s.resources[resource] = make(map[string]any)
	}
	s.resources[resource][name] = doc
}

func (s *CatalogServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.Trim(r.URL.Path, "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "pokemon":
		s.writeIndex(w, r)
	case len(parts) == 2 && parts[0] == "pokemon":
		s.writeCreature(w, parts[1])
	case len(parts) == 2 && parts[0] == "pokemon-species":
		s.writeSpecies(w, parts[1])
	case len(parts) == 2 && parts[0] == "type":
		s.writeTypeRoster(w, parts[1])
	case len(parts) == 2:
		s.writeResource(w, parts[0], parts[1])
	default:
		http.NotFound(w, r)
	}
}

func (s *CatalogServer) writeIndex(w http.ResponseWriter, r *http.Request) {
	limit := len(s.creatures)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed < limit {
			limit = parsed
		}
	}

	results := make([]map[string]string, 0, limit)
	for _, creature := range s.creatures[:limit] {
		results = append(results, map[string]string{
			"name": creature.Name,
			"url":  fmt.Sprintf("%s/pokemon/%d/", s.URL, creature.ID),
		})
	}
	writeDoc(w, map[string]any{
		"count":   len(s.creatures),
		"results": results,
	})
}

func (s *CatalogServer) findCreature(slug string) (FakeCreature, bool) {
	for _, creature := range s.creatures {
		if strings.EqualFold(creature.Name, slug) || strconv.Itoa(creature.ID) == slug {
			return creature, true
		}
	}
	return FakeCreature{}, false
}

// statOrder matches the stat sequence the real API serves.
var statOrder = []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"}

func (s *CatalogServer) writeCreature(w http.ResponseWriter, slug string) {
	creature, ok := s.findCreature(slug)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	types := make([]map[string]any, 0, len(creature.Types))
	for i, name := range creature.Types {
		types = append(types, map[string]any{
			"slot": i + 1,
			"type": map[string]string{"name": name},
		})
	}
	abilities := make([]map[string]any, 0, len(creature.Abilities))
	for _, name := range creature.Abilities {
		abilities = append(abilities, map[string]any{
			"ability":   map[string]string{"name": name},
			"is_hidden": false,
		})
	}
	stats := make([]map[string]any, 0, len(creature.Stats))
	for _, name := range statOrder {
		if value, ok := creature.Stats[name]; ok {
			stats = append(stats, map[string]any{
				"base_stat": value,
				"stat":      map[string]string{"name": name},
			})
		}
	}

	doc := map[string]any{
		"id":        creature.ID,
		"name":      creature.Name,
		"height":    7,
		"weight":    69,
		"types":     types,
		"abilities": abilities,
		"stats":     stats,
		"sprites":   json.RawMessage(spritesDocument(creature.SpriteURLs)),
	}
	writeDoc(w, doc)
}

// spriteSlots name the document fields fake sprite URLs occupy, in order.
var spriteSlots = []string{"front_default", "front_shiny", "back_default", "back_shiny"}

// spritesDocument builds an ordered JSON object by hand; encoding/json sorts
// map keys, which would destroy the document-order guarantee under test.
func spritesDocument(urls []string) []byte {
	var builder strings.Builder
	builder.WriteString(`{"front_female":null`)
	for i, url := range urls {
		slot := fmt.Sprintf("extra_%d", i)
		if i < len(spriteSlots) {
			slot = spriteSlots[i]
		}
		encoded, _ := json.Marshal(url)
		builder.WriteString(fmt.Sprintf(`,%q:%s`, slot, encoded))
	}
	builder.WriteString("}")
	return []byte(builder.String())
}

func (s *CatalogServer) writeSpecies(w http.ResponseWriter, slug string) {
	creature, ok := s.findCreature(slug)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeDoc(w, map[string]any{
		"id":   creature.ID,
		"name": creature.Name,
		"flavor_text_entries": []map[string]any{
			{
				"flavor_text": "texte en français",
				"language":    map[string]string{"name": "fr"},
			},
			{
				"flavor_text": creature.Flavor,
				"language":    map[string]string{"name": "en"},
			},
		},
	})
}

func (s *CatalogServer) writeTypeRoster(w http.ResponseWriter, typeName string) {
	roster := make([]map[string]any, 0, len(s.creatures))
	for _, creature := range s.creatures {
		for _, t := range creature.Types {
			if strings.EqualFold(t, typeName) {
				roster = append(roster, map[string]any{
					"pokemon": map[string]string{"name": creature.Name},
				})
				break
			}
		}
	}
	if len(roster) == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeDoc(w, map[string]any{"pokemon": roster})
}

func (s *CatalogServer) writeResource(w http.ResponseWriter, resource, name string) {
	docs, ok := s.resources[resource]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	doc, ok := docs[name]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeDoc(w, doc)
}

func writeDoc(w http.ResponseWriter, doc any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// SpriteServer serves PNG payloads by path, returning 404 for anything
// unregistered. Paths include the leading slash.
type SpriteServer struct {
	*httptest.Server

	mu      sync.Mutex
	sprites map[string][]byte
	hits    map[string]int
}

// NewSpriteServer starts a fake artwork host. The server shuts down with the
// test.
func NewSpriteServer(t testing.TB, sprites map[string][]byte) *SpriteServer {
	t.Helper()

	s := &SpriteServer{sprites: make(map[string][]byte), hits: make(map[string]int)}
	for path, data := range sprites {
		s.sprites[path] = data
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.hits[r.URL.Path]++
		data, ok := s.sprites[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	t.Cleanup(s.Server.Close)
	return s
}

// Set registers or replaces a sprite payload.
func (s *SpriteServer) Set(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprites[path] = data
}

// Hits reports how many times a path was requested.
func (s *SpriteServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}
