// Package lockstore owns the per-source lock markers that keep at most one
// capture running for each source.
//
// A marker's existence is the only signal the dispatcher consults. Its
// contents (owning pid, run, host, and address) exist purely so operators can
// see who created it. DirStore keeps markers as files named <id>.lock in a
// directory and creates them with O_EXCL so two acquirers can never both
// succeed. MemoryStore offers the same contract for tests and embedding.
package lockstore
