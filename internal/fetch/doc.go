// Package fetch retrieves remote images with browser-style headers, a strict
// payload cap enforced during the read, and TTL caches for both raw payloads
// and computed sprite fingerprints.
//
// Sprite fingerprints use availability semantics: a sprite that cannot be
// fetched or decoded is reported absent instead of producing an error or a
// zero score, so matchers drop it from consideration.
package fetch
