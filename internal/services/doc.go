// Package services defines shared plumbing consumed by the dispatcher, the
// capture runner, and the process runtime.
//
// Key responsibilities:
//   - Context helpers that stamp source identifiers, capture session IDs, and
//     the orchestrator run ID for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     fatal (setup, registry) or per-source (lock store, capture).
//
// Use these helpers when wiring new components so error escalation and log
// shape stay uniform across the orchestrator.
package services
