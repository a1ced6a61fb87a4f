// Package services defines shared utilities consumed by the identification
// pipeline and the API surface.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform from the hash engine up to the HTTP handlers.
//   - The HTTPStatus mapping that turns classified errors into stable
//     response codes.
//   - Context helpers that stamp request correlation identifiers for logging.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across components.
package services
