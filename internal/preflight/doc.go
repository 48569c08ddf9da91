// Package preflight provides readiness checks for the filesystem paths and
// the capture executor livecap depends on.
//
// These checks run in two contexts:
//   - daemonrun calls RunAll once before startup recovery; any failure is a
//     setup error and the orchestrator refuses to start.
//   - The CLI "livecap status" command renders the same results as a table.
package preflight
