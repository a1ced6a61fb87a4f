package pokeapi

import (
	"encoding/json"
	"strings"
)

// NamedResource is the API's {name, url} reference pair.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CatalogEntry is one row of the creature index. ID is parsed from the entry's
// resource URL; entries whose URL carries no numeric ID are dropped during
// listing because every sprite lookup needs one.
type CatalogEntry struct {
	ID   int
	Name string
	URL  string
}

// TypeSlot is one of a creature's elemental types.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// AbilitySlot is one of a creature's abilities.
type AbilitySlot struct {
	Ability NamedResource `json:"ability"`
	Hidden  bool          `json:"is_hidden"`
}

// StatValue is a single base stat.
type StatValue struct {
	Base int           `json:"base_stat"`
	Stat NamedResource `json:"stat"`
}

// Creature is the detail record for one catalog entry. Height and weight are
// pointers because the API omits them for some forms; renderers skip absent
// values instead of printing zeros.
type Creature struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Height    *int            `json:"height"`
	Weight    *int            `json:"weight"`
	Types     []TypeSlot      `json:"types"`
	Abilities []AbilitySlot   `json:"abilities"`
	Stats     []StatValue     `json:"stats"`
	Sprites   json.RawMessage `json:"sprites"`
}

// TypeNames returns the creature's type names in slot order as served.
func (c *Creature) TypeNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Types))
	for _, slot := range c.Types {
		if slot.Type.Name != "" {
			names = append(names, slot.Type.Name)
		}
	}
	return names
}

// AbilityNames returns the creature's ability names as served.
func (c *Creature) AbilityNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Abilities))
	for _, slot := range c.Abilities {
		if slot.Ability.Name != "" {
			names = append(names, slot.Ability.Name)
		}
	}
	return names
}

// FrontDefault returns the default front sprite address from the sprites
// document, or "" when none is present.
func (c *Creature) FrontDefault() string {
	if c == nil || len(c.Sprites) == 0 {
		return ""
	}
	var doc struct {
		FrontDefault string `json:"front_default"`
	}
	if err := json.Unmarshal(c.Sprites, &doc); err != nil {
		return ""
	}
	return doc.FrontDefault
}

// BaseStat looks up a base stat by its API name, such as "special-attack".
func (c *Creature) BaseStat(name string) (int, bool) {
	if c == nil {
		return 0, false
	}
	for _, stat := range c.Stats {
		if stat.Stat.Name == name {
			return stat.Base, true
		}
	}
	return 0, false
}

// FlavorText is one localized description entry.
type FlavorText struct {
	Text     string        `json:"flavor_text"`
	Language NamedResource `json:"language"`
}

// Species is the species record backing a creature's descriptive text.
type Species struct {
	ID                int          `json:"id"`
	Name              string       `json:"name"`
	FlavorTextEntries []FlavorText `json:"flavor_text_entries"`
}

// EnglishFlavorText returns the first English flavor entry with form feeds and
// newlines collapsed to spaces and surrounding whitespace trimmed, or "" when
// the species has none.
func (s *Species) EnglishFlavorText() string {
	if s == nil {
		return ""
	}
	for _, entry := range s.FlavorTextEntries {
		if entry.Language.Name != "en" {
			continue
		}
		return strings.TrimSpace(flattenFlavorText(entry.Text))
	}
	return ""
}

// flattenFlavorText replaces the line and page breaks the API embeds in flavor
// strings with plain spaces.
func flattenFlavorText(text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if r == '\n' || r == '\f' || r == '\r' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
