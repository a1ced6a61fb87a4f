// Package render produces the markdown documents the HTTP and CLI surfaces
// return: identification reports, creature cards, type rosters, and generic
// resource cards.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sightdex/internal/imagehash"
	"sightdex/internal/pokeapi"
)

// DisplayName converts an API slug such as "special-attack" into a
// human-readable title.
func DisplayName(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}

// typeEmojis decorates headings per elemental type.
var typeEmojis = map[string]string{
	"electric": "⚡",
	"fire":     "🔥",
	"water":    "💧",
	"grass":    "🌿",
	"ice":      "❄️",
	"fighting": "🥊",
	"poison":   "☠️",
	"ground":   "🌋",
	"flying":   "🕊️",
	"psychic":  "🔮",
	"bug":      "🐛",
	"rock":     "🪨",
	"ghost":    "👻",
	"dragon":   "🐉",
	"dark":     "🌑",
	"steel":    "⚙️",
	"fairy":    "✨",
	"normal":   "⭐",
}

// TypeEmoji returns the decoration for an elemental type name, or "" for
// unknown types.
func TypeEmoji(typeName string) string {
	return typeEmojis[strings.ToLower(typeName)]
}

// IdentifyReport renders the markdown document for an identification result.
// creature and species may be nil; the verification and similarity lines are
// always present.
func IdentifyReport(creature *pokeapi.Creature, species *pokeapi.Species, status imagehash.Classification, similarity float64) string {
	name := "Unknown"
	if creature != nil && creature.Name != "" {
		name = creature.Name
	}
	title := DisplayName(name)

	lines := []string{
		"## " + title,
		"",
		fmt.Sprintf("- Verification: **%s**", status),
		fmt.Sprintf("- Similarity: **%.4f**", similarity),
	}
	if sprite := creature.FrontDefault(); sprite != "" {
		lines = append(lines, "", fmt.Sprintf("![%s](%s)", title, sprite))
	}
	if types := creature.TypeNames(); len(types) != 0 {
		lines = append(lines, "", typeSentence(title, types))
	}
	if fact := species.EnglishFlavorText(); fact != "" {
		lines = append(lines, "", fact)
	}
	lines = append(lines, abilitySection(creature)...)
	lines = append(lines, statsSection(creature)...)
	return strings.Join(lines, "\n")
}

// PokemonCard renders the conversational creature card: type decoration in
// the heading, flavor text up top, and the sprite at the bottom.
func PokemonCard(creature *pokeapi.Creature, species *pokeapi.Species) string {
	name := "Unknown"
	if creature != nil && creature.Name != "" {
		name = creature.Name
	}
	title := DisplayName(name)
	types := creature.TypeNames()

	heading := "## " + title
	if len(types) != 0 {
		heading = strings.TrimRight(heading+" "+TypeEmoji(types[0]), " ")
	}
	lines := []string{heading}
	if len(types) != 0 {
		lines = append(lines, typeSentence(title, types))
	}
	if fact := species.EnglishFlavorText(); fact != "" {
		lines = append(lines, "", fact)
	}
	lines = append(lines, abilitySection(creature)...)
	lines = append(lines, statsSection(creature)...)
	if sprite := creature.FrontDefault(); sprite != "" {
		lines = append(lines, "", fmt.Sprintf("![%s](%s)", title, sprite))
	}
	return strings.Join(lines, "\n")
}

// TypeRosterList renders a numbered roster of creatures for one elemental
// type.
func TypeRosterList(typeName string, names []string) string {
	title := strings.TrimRight(fmt.Sprintf("%s-type Pokémon %s", DisplayName(typeName), TypeEmoji(typeName)), " ")
	lines := []string{
		"## " + title,
		"",
		fmt.Sprintf("Here are %d %s type Pokémon:", len(names), typeName),
	}
	return strings.Join(append(lines, numbered(names)...), "\n")
}

// CatalogList renders a numbered roster of the first creatures in the
// catalog.
func CatalogList(names []string) string {
	lines := []string{
		"## Pokémon",
		"",
		fmt.Sprintf("Here are %d Pokémon:", len(names)),
	}
	return strings.Join(append(lines, numbered(names)...), "\n")
}

// ResourceCard renders the minimal card for a non-creature catalog record.
func ResourceCard(resource, name string) string {
	if name == "" {
		name = resource
	}
	return fmt.Sprintf("# %s\n\nSource: **%s**", DisplayName(name), DisplayName(resource))
}

func typeSentence(title string, types []string) string {
	display := make([]string, len(types))
	for idx, name := range types {
		display[idx] = DisplayName(name)
	}
	return fmt.Sprintf("%s is a %s-type Pokémon.", title, strings.Join(display, ", "))
}

func abilitySection(creature *pokeapi.Creature) []string {
	abilities := creature.AbilityNames()
	if len(abilities) == 0 {
		return nil
	}
	lines := []string{"", "**Abilities:**"}
	for _, ability := range abilities {
		lines = append(lines, "- "+DisplayName(ability))
	}
	return lines
}

// statOrder and statHeaders pair the API stat keys with their table column
// titles.
var (
	statOrder   = []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"}
	statHeaders = []string{"HP", "Attack", "Defense", "Sp. Atk", "Sp. Def", "Speed"}
)

func statsSection(creature *pokeapi.Creature) []string {
	if creature == nil || len(creature.Stats) == 0 {
		return nil
	}
	values := make([]string, len(statOrder))
	for idx, key := range statOrder {
		values[idx] = "-"
		if value, ok := creature.BaseStat(key); ok {
			values[idx] = strconv.Itoa(value)
		}
	}
	return []string{
		"",
		"**Base Stats:**",
		"| " + strings.Join(statHeaders, " | ") + " |",
		"|" + strings.Repeat("----|", len(statHeaders)),
		"| " + strings.Join(values, " | ") + " |",
	}
}

func numbered(names []string) []string {
	lines := make([]string, 0, len(names))
	for idx, name := range names {
		lines = append(lines, fmt.Sprintf("%d. %s", idx+1, DisplayName(name)))
	}
	return lines
}
