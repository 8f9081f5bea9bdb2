// Package version holds build details, set at link time with -ldflags "-X".
package version

import "strings"

// Build and version details
var (
	GitCommit   = ""
	GitBranch   = ""
	GitUpstream = ""
	BuildDate   = ""
	Version     = "unknown"
)

// String formats the version details which are set, one per line.
func String() string {
	var lines []string
	add := func(name, val string) {
		if val != "" {
			lines = append(lines, name+": "+val)
		}
	}
	add("git commit", GitCommit)
	add("git branch", GitBranch)
	add("git upstream", GitUpstream)
	add("build date", BuildDate)
	add("version", Version)
	return strings.Join(lines, "\n")
}

// LogFields returns build and version information as logger key/value pairs.
func LogFields() []interface{} {
	return []interface{}{
		"GitCommit", GitCommit,
		"GitBranch", GitBranch,
		"BuildDate", BuildDate,
		"Version", Version,
	}
}
