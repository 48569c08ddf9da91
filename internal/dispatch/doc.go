// Package dispatch implements the poll loop that turns registry entries into
// running captures.
//
// Each cycle reads the registry, and for every source whose lock marker is
// absent it acquires the marker and launches a capture on its own goroutine.
// Launched jobs are never awaited by the loop; they release their marker when
// the executor exits, which makes the source eligible again on a later cycle.
// Per-source lock store failures are logged and skipped. A registry failure
// ends the loop.
//
// Recover clears every marker once at startup. It is only safe while the
// caller holds the process-wide instance lock (see daemonrun).
package dispatch
