package webserver

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Free-text fields (reasons, notes, comments) are stored stripped of any
// markup rather than escaped on the way out.
var strictPolicy = bluemonday.StrictPolicy()

func clean(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
