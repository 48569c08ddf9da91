// Package api serves the read-only status HTTP API: process health, the
// current lock markers, and recent captures from the history journal.
//
// Routes are mounted on a chi router. When a token is configured every request
// must carry "Authorization: Bearer <token>".
package api
