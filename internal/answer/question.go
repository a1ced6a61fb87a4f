package answer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// listTriggers mark a question as asking for a roster rather than a single
// record.
var listTriggers = []string{"list", "show", "give", "some", "few", "suggest", "find"}

// typeNames are the elemental types recognized in questions.
var typeNames = []string{
	"normal", "fire", "water", "grass", "electric", "ice",
	"fighting", "poison", "ground", "flying", "psychic", "bug",
	"rock", "ghost", "dragon", "dark", "steel", "fairy",
}

// stopWords are question scaffolding, never record names.
var stopWords = map[string]struct{}{
	"what": {}, "is": {}, "are": {}, "the": {}, "a": {}, "an": {},
	"about": {}, "tell": {}, "me": {}, "list": {}, "stats": {}, "stat": {},
	"ability": {}, "abilities": {}, "type": {}, "types": {}, "moves": {},
	"move": {}, "pokemon": {}, "pokemons": {}, "pokémon": {}, "item": {},
	"items": {}, "berry": {}, "berries": {}, "info": {}, "weakness": {},
	"weaknesses": {}, "evolution": {}, "chain": {}, "for": {}, "of": {},
	"to": {}, "and": {}, "in": {},
}

var (
	countPattern     = regexp.MustCompile(`\b(\d{1,3})\b`)
	typeNamePattern  = regexp.MustCompile(`\b(` + strings.Join(typeNames, "|") + `)\b`)
	candidateCleaner = regexp.MustCompile(`[^a-z0-9\-\s]`)
)

const (
	defaultListCount = 5
	maxListCount     = 50
)

// normalize lowercases a question and collapses runs of whitespace.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// isListRequest reports whether a normalized question asks for a roster.
func isListRequest(q string) bool {
	for _, trigger := range listTriggers {
		if strings.Contains(q, trigger) {
			return true
		}
	}
	return false
}

// extractCount pulls the requested roster size out of a normalized question,
// clamped to [1, maxListCount] with a default when no number appears.
func extractCount(q string) int {
	match := countPattern.FindStringSubmatch(q)
	if match == nil {
		return defaultListCount
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n < 1 {
		return defaultListCount
	}
	if n > maxListCount {
		return maxListCount
	}
	return n
}

// extractTypeName returns the first elemental type mentioned in a normalized
// question, or "".
func extractTypeName(q string) string {
	return typeNamePattern.FindString(q)
}

// extractCandidates tokenizes a normalized question into unique candidate
// record names, most specific (longest) first. Scaffolding words and bare
// numbers are discarded; numbers are roster counts, not record IDs.
func extractCandidates(q string) []string {
	cleaned := candidateCleaner.ReplaceAllString(q, " ")
	seen := make(map[string]struct{})
	var candidates []string
	for _, token := range strings.Fields(cleaned) {
		if _, stop := stopWords[token]; stop {
			continue
		}
		if isAllDigits(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		candidates = append(candidates, token)
	}
	sort.Slice(candidates, func(a, b int) bool {
		if len(candidates[a]) != len(candidates[b]) {
			return len(candidates[a]) > len(candidates[b])
		}
		return candidates[a] < candidates[b]
	})
	return candidates
}

// resourcesByPriority orders the catalog resources to try for a normalized
// question. Plural attribute words ("types of lucario") prefer the base
// creature record over the attribute resource itself.
func resourcesByPriority(q string) []string {
	var order []string
	if strings.Contains(q, "types") {
		order = append(order, "pokemon", "type")
	}
	if strings.Contains(q, "abilities") {
		order = append(order, "pokemon", "ability")
	}
	if strings.Contains(q, "moves") {
		order = append(order, "pokemon", "move")
	}
	if strings.Contains(q, "pokemon") || strings.Contains(q, "pokémon") {
		order = append(order, "pokemon")
	}
	if strings.Contains(q, "berry") || strings.Contains(q, "berries") {
		order = append(order, "berry")
	}
	if strings.Contains(q, "move") {
		order = append(order, "pokemon", "move")
	}
	if strings.Contains(q, "ability") {
		order = append(order, "pokemon", "ability")
	}
	if strings.Contains(q, "item") {
		order = append(order, "item")
	}
	if strings.Contains(q, "type") {
		order = append(order, "pokemon", "type")
	}
	if strings.Contains(q, "tm") || strings.Contains(q, "hm") {
		order = append(order, "move")
	}
	if len(order) == 0 {
		order = []string{"pokemon", "move", "ability", "type", "item", "berry"}
	}

	seen := make(map[string]struct{}, len(order))
	deduped := order[:0]
	for _, resource := range order {
		if _, dup := seen[resource]; dup {
			continue
		}
		seen[resource] = struct{}{}
		deduped = append(deduped, resource)
	}
	return deduped
}

func isAllDigits(token string) bool {
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(token) > 0
}
