package pokeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// mirrorSets are the community sprite collections tried during refinement,
// ordered from the most recent generation's renders backwards.
var mirrorSets = []string{
	"home/normal",
	"home/shiny",
	"sword-shield/normal",
	"sword-shield/shiny",
	"x-y/normal",
	"x-y/shiny",
	"black-white/normal",
	"black-white/shiny",
	"diamond-pearl/normal",
	"diamond-pearl/shiny",
}

// PrimarySpriteURL returns the canonical front sprite for a creature ID. The
// address is templated from the ID alone; no detail lookup is needed, which is
// what keeps the coarse scan to one fetch per candidate.
func (c *Client) PrimarySpriteURL(id int) string {
	return fmt.Sprintf("%s/%d.png", c.spriteBaseURL, id)
}

// mirrorSpriteURLs returns the mirror-host renders for a creature name.
func (c *Client) mirrorSpriteURLs(name string) []string {
	slug := mirrorSlug(name)
	if slug == "" || c.mirrorBaseURL == "" {
		return nil
	}
	urls := make([]string, 0, len(mirrorSets))
	for _, set := range mirrorSets {
		urls = append(urls, fmt.Sprintf("%s/%s/%s.png", c.mirrorBaseURL, set, slug))
	}
	return urls
}

func mirrorSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// SpriteURLs gathers every artwork source for a creature: the addresses
// embedded in the detail's sprites document in the order the API serves them,
// then mirror renders when enabled. The list is deduplicated preserving first
// occurrence and capped at limit. A nil creature has no sources.
func (c *Client) SpriteURLs(creature *Creature, limit int, includeMirror bool) []string {
	if creature == nil || limit <= 0 {
		return nil
	}

	candidates := collectHTTPStrings(creature.Sprites, limit)
	if includeMirror {
		candidates = append(candidates, c.mirrorSpriteURLs(creature.Name)...)
	}

	seen := make(map[string]struct{}, len(candidates))
	urls := make([]string, 0, min(limit, len(candidates)))
	for _, candidate := range candidates {
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		urls = append(urls, candidate)
		if len(urls) >= limit {
			break
		}
	}
	return urls
}

// collectHTTPStrings walks a JSON document and returns the http(s) string
// values in document order, which mirrors how the API lays out sprite
// generations. Collection stops at limit.
func collectHTTPStrings(raw json.RawMessage, limit int) []string {
	if len(raw) == 0 || limit <= 0 {
		return nil
	}

	type frame struct {
		isObject  bool
		expectKey bool
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	var stack []frame
	var out []string

	for len(out) < limit {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch value := token.(type) {
		case json.Delim:
			switch value {
			case '{':
				stack = append(stack, frame{isObject: true, expectKey: true})
			case '[':
				stack = append(stack, frame{})
			case '}', ']':
				stack = stack[:len(stack)-1]
				if len(stack) > 0 && stack[len(stack)-1].isObject {
					stack[len(stack)-1].expectKey = true
				}
			}
		case string:
			if len(stack) > 0 && stack[len(stack)-1].isObject {
				top := &stack[len(stack)-1]
				if top.expectKey {
					top.expectKey = false
					continue
				}
				top.expectKey = true
			}
			if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
				out = append(out, value)
			}
		default:
			if len(stack) > 0 && stack[len(stack)-1].isObject {
				stack[len(stack)-1].expectKey = true
			}
		}
	}
	return out
}
