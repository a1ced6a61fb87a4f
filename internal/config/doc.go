// Package config loads, normalizes, and validates sightdex configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SIGHTDEX_HASH_METHOD. The Config type centralizes every knob the server and
// CLI need, from fingerprint parameters to catalog endpoints, so tuning lives
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical hash methods, and clear validation errors.
package config
