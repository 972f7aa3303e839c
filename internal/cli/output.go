package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"eventor/internal/schema"
	"eventor/internal/series"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// writeJSON outputs a payload as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func joinInts(ids []int) string {
	return strings.Join(lo.Map(ids, func(id int, _ int) string {
		return strconv.Itoa(id)
	}), ", ")
}

func writeEventText(w io.Writer, event *schema.Event) error {
	fmt.Fprintf(w, "%s (id %d)\n", event.Name, event.ID)
	fmt.Fprintf(w, "  Classification: %s\n", event.Classification)
	fmt.Fprintf(w, "  Status: %d\n", event.StatusID)
	fmt.Fprintf(w, "  Dates: %s to %s\n", event.StartDate, event.FinishDate.Date)
	if len(event.OrganiserIDs) > 0 {
		fmt.Fprintf(w, "  Organisers: %s\n", joinInts(event.OrganiserIDs))
	}
	for _, race := range event.Races {
		line := fmt.Sprintf("  Race %d on %s", race.RaceID, race.Date.Date)
		if race.Name != nil {
			line += ": " + *race.Name
		}
		if race.Distance != nil {
			line += " (" + *race.Distance + ")"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func writeEventsText(w io.Writer, events []schema.Event) error {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, e := range events {
		fmt.Fprintf(w, "%s  %6d  %s (%s)\n", e.StartDate, e.ID, e.Name, e.Classification)
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", len(events))
	return nil
}

func writeResultsText(w io.Writer, list *schema.ResultList) error {
	fmt.Fprintf(w, "%s (%s)\n", list.Event.Name, list.Event.StartDate)
	if len(list.Classes) == 0 {
		fmt.Fprintln(w, "No results posted.")
		return nil
	}

	for _, class := range list.Classes {
		fmt.Fprintf(w, "\n%s (%d entries):\n", class.Name, class.Entries)
		for _, pr := range class.Results {
			writePersonResult(w, pr, "  ")
		}
	}
	return nil
}

func writeResultListsText(w io.Writer, lists *schema.ResultListList) error {
	if len(lists.Lists) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	for i, list := range lists.Lists {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", list.Event.Name, list.Event.StartDate)
		for _, class := range list.Classes {
			fmt.Fprintf(w, "  %s:\n", class.Name)
			for _, pr := range class.Results {
				writePersonResult(w, pr, "    ")
			}
		}
	}
	return nil
}

// writePersonResult renders one competitor's row. Multi-race events carry
// the result one level deeper, inside a RaceResult.
func writePersonResult(w io.Writer, pr schema.PersonResult, indent string) {
	result := pr.Result
	if result == nil && pr.RaceResult != nil {
		result = &pr.RaceResult.Result
	}

	position := " -"
	clock := "-"
	status := ""
	if result != nil {
		if result.Position != nil {
			position = fmt.Sprintf("%2d", *result.Position)
		}
		if result.Time != nil {
			clock = *result.Time
		}
		if result.Status != "OK" {
			status = "  [" + result.Status + "]"
		}
	}
	fmt.Fprintf(w, "%s%s  %8s  %s (%s)%s\n",
		indent, position, clock, pr.Person.Name(), pr.Organisation.Name, status)

	if result == nil {
		return
	}
	for _, split := range result.Splits {
		punch := "missed"
		if split.Time != nil {
			punch = *split.Time
		}
		fmt.Fprintf(w, "%s     control %d: %s\n", indent, split.ControlCode, punch)
	}
}

func writeOrganisationsText(w io.Writer, orgs []schema.Organisation) error {
	if len(orgs) == 0 {
		fmt.Fprintln(w, "No organisations found.")
		return nil
	}

	for _, org := range orgs {
		fmt.Fprintf(w, "%6d  %s (%s)\n", org.ID, org.Name, org.ShortName)
	}
	fmt.Fprintf(w, "\nTotal: %d organisations\n", len(orgs))
	return nil
}

func writeOrganisationText(w io.Writer, org *schema.Organisation) error {
	fmt.Fprintf(w, "%s (id %d)\n", org.Name, org.ID)
	fmt.Fprintf(w, "  Short name: %s\n", org.ShortName)
	fmt.Fprintf(w, "  Type: %d\n", org.TypeID)
	if org.ParentID != nil {
		fmt.Fprintf(w, "  Parent organisation: %d\n", *org.ParentID)
	}
	return nil
}

func writePersonsText(w io.Writer, persons []schema.Person) error {
	if len(persons) == 0 {
		fmt.Fprintln(w, "No members found.")
		return nil
	}

	for _, p := range persons {
		id := "-"
		if p.ID != nil {
			id = strconv.Itoa(*p.ID)
		}
		born := "-"
		if p.BirthDate != nil {
			born = p.BirthDate.Date
		}
		fmt.Fprintf(w, "%8s  %-30s  %s\n", id, p.Name(), born)
	}
	fmt.Fprintf(w, "\nTotal: %d members\n", len(persons))
	return nil
}

func writeDistancesText(w io.Writer, distances map[string]int) error {
	if len(distances) == 0 {
		fmt.Fprintln(w, "No course distances found.")
		return nil
	}

	classes := make([]string, 0, len(distances))
	for class := range distances {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		fmt.Fprintf(w, "%-30s %5d m\n", class, distances[class])
	}
	return nil
}

func formatScores(scores []int) string {
	return strings.Join(lo.Map(scores, func(score int, _ int) string {
		if score == series.Absent {
			return "-"
		}
		return strconv.Itoa(score)
	}), " ")
}

func writeSeriesText(w io.Writer, table series.Table) error {
	if len(table.Events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for i, name := range table.Events {
		if i == len(table.Events)-1 {
			fmt.Fprintf(w, "%d. %s (Jaktstart)\n", i+1, name)
		} else {
			fmt.Fprintf(w, "%d. %s\n", i+1, name)
		}
	}

	for _, standing := range table.Standings {
		fmt.Fprintf(w, "\n%s:\n", standing.Class)
		for i, c := range standing.Competitors {
			fmt.Fprintf(w, "  %2d. %-25s %-20s %s  total %d  start +%ds\n",
				i+1, c.Name, c.Organisation, formatScores(c.Scores), c.Total, c.ChaseGap)
		}
	}
	return nil
}
