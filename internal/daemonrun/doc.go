// Package daemonrun wires the livecap orchestrator process together: logging,
// the single-instance lock, executor resolution, the history journal, the
// status API, startup recovery, and the dispatcher loop.
package daemonrun
