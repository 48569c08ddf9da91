// Package history keeps an SQLite journal of capture jobs.
//
// Every dispatched job gets a row when it starts and is closed with its
// outcome when it ends. Rows left open by a process that died are marked
// abandoned on the next startup. The journal is write-mostly audit data for
// `livecap status` and the status API; the dispatcher never reads it, so a
// journal failure is logged and otherwise ignored.
package history
