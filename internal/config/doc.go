// Package config loads, normalizes, and validates livecap configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LIVECAP_API_TOKEN. The Config type centralizes every knob the orchestrator
// and CLI need: where the source registry lives, where lock markers and
// captures are written, which capture executor runs, and how the poll loop is
// paced.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
