package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// diffableArtifacts are the text artifacts compared between two sessions.
// Crash report payloads and session metadata are skipped: the former are
// binary-ish per-incident files, the latter differs by construction.
var diffableArtifacts = []string{SyslogFileName, DeviceInfoFileName, DiagnosticsFileName}

// DiffSessions renders unified diffs between the text artifacts of two
// snapshot session directories. Artifacts absent on both sides are skipped;
// an artifact absent on one side diffs against empty content.
func DiffSessions(dirA, dirB string) (string, error) {
	for _, dir := range []string{dirA, dirB} {
		info, err := os.Stat(dir)
		if err != nil {
			return "", fmt.Errorf("session %s: %w", dir, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("session %s: not a directory", dir)
		}
	}
	var b strings.Builder
	for _, name := range diffableArtifacts {
		a, aErr := os.ReadFile(filepath.Join(dirA, name))
		c, cErr := os.ReadFile(filepath.Join(dirB, name))
		if aErr != nil && cErr != nil {
			continue
		}
		if string(a) == string(c) {
			continue
		}
		ud := difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(a)),
			B:        difflib.SplitLines(string(c)),
			FromFile: fmt.Sprintf("%s/%s", filepath.Base(dirA), name),
			ToFile:   fmt.Sprintf("%s/%s", filepath.Base(dirB), name),
			Context:  3,
		}
		diff, err := difflib.GetUnifiedDiffString(ud)
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", name, err)
		}
		if diff != "" {
			b.WriteString(diff)
		}
	}
	if b.Len() == 0 {
		return "no differences found\n", nil
	}
	return b.String(), nil
}
