// Package registry reads the source registry: the mapping from source id to
// stream address that the dispatcher re-reads every poll cycle.
//
// Registries live in a JSON object ({"alice": "https://..."}, in file order)
// or a TOML document (a flat table, or [streams.<id>] tables with a source
// key, sorted by id). Any read, parse, or validation failure is returned as a
// services.ErrRegistry error and is fatal to the caller.
package registry
