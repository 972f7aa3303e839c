// Package distance extracts course distances from the free-form Swedish
// text shown on result pages, such as "3 200 m, 1:30".
package distance

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrNoDistance reports that a text contains no recognizable distance.
var ErrNoDistance = errors.New("no distance found")

// A distance is one or two digit groups directly followed by " m,". The
// optional leading group is a thousands group; the separator is any
// whitespace including the non-breaking space the pages use.
var distancePattern = regexp.MustCompile(`(?:(\d+)[\s\p{Zs}]+)?(\d+) m,`)

// Parse extracts an integer number of meters from text. A space-separated
// thousands group is folded into the number ("3 200 m," parses to 3200) and
// anything after the matched pattern is ignored. Returns ErrNoDistance when
// no distance appears anywhere in the text.
func Parse(text string) (int, error) {
	m := distancePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrNoDistance
	}
	n, err := strconv.Atoi(m[1] + m[2])
	if err != nil {
		return 0, fmt.Errorf("parsing distance %q: %w", m[0], err)
	}
	return n, nil
}
