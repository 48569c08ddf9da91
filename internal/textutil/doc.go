// Package textutil provides filename helpers shared by the lock store, the
// capture runner, and the source registry.
//
// Source identifiers end up as path segments twice: once as the lock marker
// name and once as the prefix of every capture file. Both go through
// SanitizeFileName, and the lock store refuses identifiers that IsSafeSegment
// rejects so that two sources can never resolve to the same marker.
package textutil
