// Package main hosts the livecap CLI entrypoint and command graph.
//
// `livecap run` starts the capture orchestrator in the foreground. The other
// commands inspect the same on-disk state the orchestrator uses (lock
// markers, the source registry, the capture journal) so they work whether or
// not an orchestrator is running.
package main
