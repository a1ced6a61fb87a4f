// Package identify matches a query image to a creature in the remote catalog.
//
// Identification runs in two phases. The coarse phase fingerprints every
// catalog entry's primary sprite with the configured algorithm and ranks the
// candidates by similarity; entries whose sprite cannot be fetched or hashed
// are dropped from the ranking rather than scored at zero. When the leader
// stays below the similarity threshold, the refinement phase rehashes the top
// candidates across several algorithms and crop variants of the query against
// each candidate's full sprite set, and the refined result replaces the
// coarse one only when it scores strictly higher.
//
// Both phases share one admission gate per request, so total in-flight sprite
// downloads never exceed the configured concurrency.
package identify
