package variant

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold returns the caseless form used for every comparison. A Caser is not
// safe for concurrent use, so one is built per call.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func equalFold(a, b string) bool {
	return fold(a) == fold(b)
}
