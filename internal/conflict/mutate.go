package conflict

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// IncrementName bumps the trailing instance number of a name, preserving its
// zero padding: "vm-prod-eus2-app-001" becomes "vm-prod-eus2-app-002".
// Names without a trailing number get "2" appended, treating the original as
// the implicit first instance.
func IncrementName(name string) string {
	loc := trailingDigits.FindStringIndex(name)
	if loc == nil {
		return name + "2"
	}
	digits := name[loc[0]:]
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Digit runs longer than an int only occur in degenerate names.
		return name + "2"
	}
	return fmt.Sprintf("%s%0*d", name[:loc[0]], len(digits), n+1)
}

// RandomSuffixLength is the fixed number of characters RandomSuffix appends.
const RandomSuffixLength = 4

// RandomSuffix returns a mutator that replaces any previously applied random
// suffix and appends a fresh one, so retries do not stack suffixes.
func RandomSuffix() Mutator {
	var suffixed string
	var base string
	return func(name string) string {
		if name == suffixed && base != "" {
			name = base
		}
		base = name
		suffixed = name + randomChars(RandomSuffixLength)
		return suffixed
	}
}

// randomChars derives n lowercase hex characters from a fresh UUID.
func randomChars(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
