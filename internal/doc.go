// Package internal contains the core implementation packages for cmdhub.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the cmdhub CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - registry: thread-safe component registry with aliases and dimensions
//   - hub: lazily initialized facade over the registry
//   - introspect: handler parameter introspection with registration hints
//   - cmdtree: dot-separated names resolved into an ordered command tree
//   - adapter: the rendering contract and exit-code mapping
//   - adapter/cobraadapter: cobra rendering of the command tree
//   - discovery: YAML manifest scanning and filesystem watching
//   - config: configuration management with validation
//   - errors: structured error types with stable codes
//   - logging: structured logging built on slog
//   - version: build-time version information
package internal
