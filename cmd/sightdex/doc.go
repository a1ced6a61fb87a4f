// Package main hosts the sightdex CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the API server, drives in-process
// identifications and catalog questions, lists catalog entries, and scaffolds
// configuration. It centralizes configuration resolution and logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
