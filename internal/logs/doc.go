// Package logs reads the orchestrator's log files for the CLI: the last lines
// of the current log and new lines as they are appended.
package logs
