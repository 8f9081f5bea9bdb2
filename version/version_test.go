package version

import (
	"testing"

	"github.com/andreyvit/diff"
)

func TestString(t *testing.T) {
	GitCommit = "abc123"
	BuildDate = "2024-10-01"
	defer func() {
		GitCommit = ""
		BuildDate = ""
	}()

	expected := "git commit: abc123\nbuild date: 2024-10-01\nversion: unknown"
	if s := String(); s != expected {
		t.Errorf("unexpected version string. diff:\n%s", diff.LineDiff(s, expected))
	}
}
