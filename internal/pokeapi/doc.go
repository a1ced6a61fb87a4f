// Package pokeapi is the client for the remote creature catalog.
//
// It exposes the catalog index, typed detail and species records, generic
// resource lookups, and the sprite URL resolver that turns one catalog entry
// into its full set of artwork sources. Missing records are reported as
// (nil, nil) rather than errors so callers can distinguish "not in catalog"
// from "catalog unreachable". Responses are cached with a TTL.
package pokeapi
