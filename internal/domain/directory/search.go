package directory

import (
	"strings"

	"golang.org/x/text/cases"
)

// SearchKey folds a name for case-insensitive matching. Folding happens in Go
// so Cyrillic names match the same way on every database driver.
func SearchKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
