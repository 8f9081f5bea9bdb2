package util

import (
	"strings"

	"github.com/rs/xid"
)

// GenJobKey generates a key identifying one run of a job, of the form
// "label.owner.id". IDs are globally unique and sortable by creation time.
func GenJobKey(label, owner string) string {
	if label == "" {
		label = "no_script"
	}
	if owner == "" {
		owner = "no_user"
	}
	return strings.Join([]string{label, owner, xid.New().String()}, ".")
}
