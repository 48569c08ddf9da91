package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// stubScript writes its argument list into the last argument (the output
// path) so tests can assert both the invocation and the artifact.
const stubScript = `#!/bin/sh
out=""
for arg in "$@"; do out="$arg"; done
if [ -n "$out" ]; then
  printf '%%s\n' "$*" > "$out"
fi
exit %d
`

// WriteStubExecutor writes an executable stub named "ffmpeg" into dir and
// returns its path.
func WriteStubExecutor(t testing.TB, dir string, exitCode int) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	target := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(target, []byte(fmt.Sprintf(stubScript, exitCode)), 0o755); err != nil {
		t.Fatalf("write stub executor: %v", err)
	}
	return target
}
