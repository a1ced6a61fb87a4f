// Package answer resolves free-form questions about catalog records into
// markdown responses.
//
// Questions are normalized, then routed: list-style questions render type
// rosters or a slice of the catalog index, everything else is tokenized into
// candidate record names and tried against catalog resources in priority
// order until one resolves. Longer tokens are tried first so specific names
// beat incidental words.
package answer
