// Package series computes cup standings across a series of events.
//
// Competitions like Vårcupen run the same colour-coded courses over a
// handful of evenings and finish with a chase start: everyone's gap to the
// series leader converts into a delayed start time at the final event.
// This package turns the per-event result lists into that standings table.
//
// Example usage:
//
//	table := series.Build(rounds)
//	for _, standing := range table.Standings {
//		fmt.Println(standing.Class)
//		for _, c := range standing.Competitors {
//			fmt.Println(c.Name, c.Total, c.ChaseGap)
//		}
//	}
package series

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"eventor/internal/schema"
)

// Absent fills the score slot of an event a competitor skipped. It stays in
// the total, so skipping an event costs one point more than a mispunch.
const Absent = -1

// Class-name tokens, matched case-insensitively as substrings. Colour order
// decides which one wins when a name mentions several.
var (
	colours = []string{"grön", "vit", "gul", "orange", "blå"}
	lengths = []string{"kort", "lång"}
)

// Round is one event of the series together with its result lists.
type Round struct {
	Event   schema.Event
	Classes []schema.ClassResult
}

// Competitor is one row of a standings table. Scores holds one entry per
// scored event in running order, with Absent marking skipped events.
type Competitor struct {
	Name         string `json:"name"`
	Organisation string `json:"organisation"`
	Scores       []int  `json:"scores"`
	Total        int    `json:"total"`
	ChaseGap     int    `json:"chase_gap_seconds"`
}

// ClassStanding is the standings table for one normalised class, ordered by
// total score, best first.
type ClassStanding struct {
	Class       string       `json:"class"`
	Competitors []Competitor `json:"competitors"`
}

// Table is the complete series standings. Events lists every round's name in
// running order; the final round is the chase start and is never scored.
type Table struct {
	Events    []string        `json:"events"`
	Standings []ClassStanding `json:"standings"`
}

// ClassName reduces a raw class name to its series identity: colour, length
// and age group. "Mellan, Orange" and "Orange mellan" both become "Orange",
// "Grön kort Ungdom" becomes "Grön kort ungdom". Names with none of the
// known tokens keep their whitespace-normalised form, so open classes stay
// apart instead of collapsing into one table.
func ClassName(raw string) string {
	clean := strings.Join(strings.Fields(raw), " ")
	name := strings.ToLower(clean)

	colour, _ := lo.Find(colours, func(c string) bool { return strings.Contains(name, c) })
	if colour != "" {
		colour = lo.Capitalize(colour)
	}
	length, _ := lo.Find(lengths, func(l string) bool { return strings.Contains(name, l) })
	var age string
	switch {
	case strings.Contains(name, "ung"):
		age = "ungdom"
	case strings.Contains(name, "vux"):
		age = "vuxen"
	}

	parts := lo.Compact([]string{colour, length, age})
	if len(parts) == 0 {
		return clean
	}
	return strings.Join(parts, " ")
}

// Score converts one result into series points: 6 for winning, one point
// less per place down to the floor of 2, and 1 for starting without a
// ranked position (mispunch, DNF).
func Score(result *schema.Result) int {
	if result == nil || result.Position == nil || *result.Position == 0 {
		return 1
	}
	return max(7-*result.Position, 2)
}

type identity struct {
	name string
	org  string
}

// Build sorts the rounds by start date, scores every round except the last
// and assembles per-class standings. Competitors are identified by person
// and organisation name, so a runner who switches clubs mid-series starts a
// new row. Fewer than two rounds leaves nothing to score.
func Build(rounds []Round) Table {
	rounds = slices.Clone(rounds)
	slices.SortStableFunc(rounds, func(a, b Round) int {
		return cmp.Compare(a.Event.StartDate, b.Event.StartDate)
	})

	table := Table{
		Events: lo.Map(rounds, func(r Round, _ int) string { return r.Event.Name }),
	}
	if len(rounds) < 2 {
		return table
	}

	scored := rounds[:len(rounds)-1]
	classes := make(map[string]map[identity][]int)
	var classOrder []string

	for i, round := range scored {
		for _, cr := range round.Classes {
			class := ClassName(cr.Name)
			for _, pr := range cr.Results {
				byPerson := classes[class]
				if byPerson == nil {
					byPerson = make(map[identity][]int)
					classes[class] = byPerson
					classOrder = append(classOrder, class)
				}
				who := identity{name: pr.Person.Name(), org: pr.Organisation.Name}
				slots := byPerson[who]
				if slots == nil {
					slots = make([]int, len(scored))
					for j := range slots {
						slots[j] = Absent
					}
					byPerson[who] = slots
				}
				slots[i] = Score(pr.Result)
			}
		}
	}

	for _, class := range classOrder {
		byPerson := classes[class]
		competitors := make([]Competitor, 0, len(byPerson))
		for who, slots := range byPerson {
			competitors = append(competitors, Competitor{
				Name:         who.name,
				Organisation: who.org,
				Scores:       slots,
				Total:        lo.Sum(slots),
			})
		}
		slices.SortFunc(competitors, func(a, b Competitor) int {
			if c := cmp.Compare(b.Total, a.Total); c != 0 {
				return c
			}
			if c := cmp.Compare(a.Name, b.Name); c != 0 {
				return c
			}
			return cmp.Compare(a.Organisation, b.Organisation)
		})

		leader := competitors[0].Total
		for i := range competitors {
			competitors[i].ChaseGap = (leader - competitors[i].Total) * 10
		}

		table.Standings = append(table.Standings, ClassStanding{
			Class:       class,
			Competitors: competitors,
		})
	}

	return table
}
