package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Classification ranks an event's competitive level, from championships down
// to club training events.
type Classification int

const (
	ClassificationChampionship Classification = iota + 1
	ClassificationNational
	ClassificationState
	ClassificationLocal
	ClassificationClub
)

var classificationNames = map[Classification]string{
	ClassificationChampionship: "championship",
	ClassificationNational:     "national",
	ClassificationState:        "state",
	ClassificationLocal:        "local",
	ClassificationClub:         "club",
}

func (c Classification) String() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("classification(%d)", int(c))
}

// ParseClassification accepts either a classification name or its numeric id.
func ParseClassification(s string) (Classification, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range classificationNames {
		if s == name {
			return c, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		c := Classification(n)
		if _, ok := classificationNames[c]; ok {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown event classification %q", s)
}
