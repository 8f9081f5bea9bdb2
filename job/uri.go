package job

import (
	"regexp"
)

var uriRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// IsURI returns true if s looks like "scheme://...". Plain paths are local.
func IsURI(s string) bool {
	return uriRE.MatchString(s)
}
