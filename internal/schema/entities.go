package schema

import (
	"strings"

	"github.com/beevik/etree"
)

// ClublessName is the organisation name shown for competitors who run
// without a club. The results feed leaves the Organisation element out (or
// strips it down to a bare name) for them; that is expected data, not an
// error.
const ClublessName = "Klubblös"

// LocalisedName is one language's rendering of a country name.
type LocalisedName struct {
	Language string `exml:"@languageId" json:"language"`
	Name     string `exml:",chardata" json:"name"`
}

// Country carries the service's country id and its localised names.
type Country struct {
	XMLName struct{}        `exml:"Country,ordered" json:"-"`
	ID      int             `exml:"CountryId@value" json:"id"`
	Names   []LocalisedName `exml:"Name" json:"names"`
}

// Date is a calendar date plus the optional clock time the service attaches
// to most timestamps.
type Date struct {
	Date  string  `exml:"Date" json:"date"`
	Clock *string `exml:"Clock" json:"clock,omitempty"`
}

// Position is a geographic point, usually the arena of a race.
type Position struct {
	X    float64 `exml:"@x" json:"x"`
	Y    float64 `exml:"@y" json:"y"`
	Unit string  `exml:"@unit" json:"unit"`
}

// Organisation is a club or federation registered with the service.
type Organisation struct {
	XMLName   struct{} `exml:"Organisation,ordered" json:"-"`
	ID        int      `exml:"OrganisationId" json:"id"`
	Name      string   `exml:"Name" json:"name"`
	ShortName string   `exml:"ShortName" json:"short_name"`
	MediaName *string  `exml:"MediaName" json:"media_name,omitempty"`
	TypeID    int      `exml:"OrganisationTypeId" json:"type_id"`
	Country   *Country `exml:"Country" json:"country,omitempty"`
	ParentID  *int     `exml:"ParentOrganisation/OrganisationId" json:"parent_id,omitempty"`
}

// OrganisationRef is the organisation attached to a PersonResult. It decodes
// as a full Organisation when the element carries one, and falls back to a
// bare display name otherwise, so callers always have a name to show.
type OrganisationRef struct {
	Organisation *Organisation `json:"organisation,omitempty"`
	Name         string        `json:"name"`
}

// Known reports whether the reference resolved to a registered organisation.
func (o OrganisationRef) Known() bool { return o.Organisation != nil }

func (o *OrganisationRef) decodeElement(el *etree.Element) error {
	var org Organisation
	if err := DecodeElement(el, &org); err == nil {
		o.Organisation = &org
		o.Name = org.Name
		return nil
	}
	// Not a full organisation: keep whatever name the fragment carries.
	o.Name = ClublessName
	if n := el.SelectElement("Name"); n != nil {
		if name := strings.TrimSpace(n.Text()); name != "" {
			o.Name = name
		}
	}
	return nil
}

func (o *OrganisationRef) fillAbsent() {
	o.Name = ClublessName
}

// EventRace is one race of a (possibly multi-race) event.
type EventRace struct {
	XMLName  struct{}  `exml:",ordered" json:"-"`
	Distance *string   `exml:"@raceDistance" json:"distance,omitempty"`
	RaceID   int       `exml:"EventRaceId" json:"race_id"`
	EventID  int       `exml:"EventId" json:"event_id"`
	Name     *string   `exml:"Name" json:"name,omitempty"`
	Date     Date      `exml:"RaceDate" json:"date"`
	Position *Position `exml:"EventCenterPosition" json:"position,omitempty"`
}

// Event is a competition event. Races appear in the order the service lists
// them, which is chronological.
type Event struct {
	XMLName        struct{}       `exml:"Event,ordered" json:"-"`
	ID             int            `exml:"EventId" json:"id"`
	Name           string         `exml:"Name" json:"name"`
	Classification Classification `exml:"EventClassificationId" json:"classification"`
	StatusID       int            `exml:"EventStatusId" json:"status_id"`
	AttributeID    *int           `exml:"EventAttributeId" json:"attribute_id,omitempty"`
	DisciplineID   *int           `exml:"DisciplineId" json:"discipline_id,omitempty"`
	StartDate      string         `exml:"StartDate/Date" json:"start_date"`
	FinishDate     Date           `exml:"FinishDate" json:"finish_date"`
	OrganiserIDs   []int          `exml:"Organiser/OrganisationId" json:"organiser_ids,omitempty"`
	Races          []EventRace    `exml:"EventRace" json:"races"`
}

// Person is a registered competitor.
type Person struct {
	XMLName     struct{} `exml:",ordered" json:"-"`
	Sex         *string  `exml:"@sex" json:"sex,omitempty"`
	FamilyName  string   `exml:"PersonName/Family" json:"family_name"`
	GivenName   string   `exml:"PersonName/Given" json:"given_name"`
	ID          *int     `exml:"PersonId" json:"id,omitempty"`
	BirthDate   *Date    `exml:"BirthDate" json:"birth_date,omitempty"`
	Nationality *Country `exml:"Nationality/Country" json:"nationality,omitempty"`
}

// Name returns the person's full display name.
func (p Person) Name() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// Split is one control-point punch. A missing time means a missed punch.
type Split struct {
	Sequence    int     `exml:"@sequence" json:"sequence"`
	ControlCode int     `exml:"ControlCode" json:"control_code"`
	Time        *string `exml:"Time" json:"time,omitempty"`
}

// Result is one competitor's outcome in one race. Position is absent for
// competitors who did not finish or were not ranked.
type Result struct {
	XMLName    struct{} `exml:",ordered" json:"-"`
	ID         int      `exml:"ResultId" json:"id"`
	StartTime  *Date    `exml:"StartTime" json:"start_time,omitempty"`
	FinishTime *Date    `exml:"FinishTime" json:"finish_time,omitempty"`
	Time       *string  `exml:"Time" json:"time,omitempty"`
	TimeDiff   *string  `exml:"TimeDiff" json:"time_diff,omitempty"`
	Position   *int     `exml:"ResultPosition" json:"position,omitempty"`
	Status     string   `exml:"CompetitorStatus@value" json:"status"`
	Splits     []Split  `exml:"SplitTime" json:"splits,omitempty"`
}

// RaceResult ties a result to one race of a multi-race event.
type RaceResult struct {
	XMLName struct{} `exml:",ordered" json:"-"`
	RaceID  int      `exml:"EventRaceId" json:"race_id"`
	Result  Result   `exml:"Result" json:"result"`
}

// PersonResult is a result bound to the person and organisation that
// produced it.
type PersonResult struct {
	XMLName      struct{}        `exml:",ordered" json:"-"`
	Person       Person          `exml:"Person" json:"person"`
	Organisation OrganisationRef `exml:"Organisation" json:"organisation"`
	Result       *Result         `exml:"Result" json:"result,omitempty"`
	RaceResult   *RaceResult     `exml:"RaceResult" json:"race_result,omitempty"`
}

// ClassResult collects every PersonResult for one competition class.
type ClassResult struct {
	XMLName   struct{}       `exml:",ordered" json:"-"`
	Entries   int            `exml:"@numberOfEntries" json:"entries"`
	Starts    *int           `exml:"@numberOfStarts" json:"starts,omitempty"`
	ClassID   int            `exml:"EventClass/EventClassId" json:"class_id"`
	Sex       string         `exml:"EventClass@sex" json:"sex"`
	Name      string         `exml:"EventClass/Name" json:"name"`
	ShortName string         `exml:"EventClass/ClassShortName" json:"short_name"`
	TypeID    int            `exml:"EventClass/ClassTypeId" json:"type_id"`
	Results   []PersonResult `exml:"PersonResult" json:"results,omitempty"`
}

// ResultList holds all class results for one event.
type ResultList struct {
	XMLName struct{}      `exml:"ResultList" json:"-"`
	Event   Event         `exml:"Event" json:"event"`
	Classes []ClassResult `exml:"ClassResult" json:"classes,omitempty"`
}

// ResultListList holds result lists across a series of events, as returned
// when querying results for one person.
type ResultListList struct {
	XMLName struct{}     `exml:"ResultListList,ordered" json:"-"`
	Lists   []ResultList `exml:"ResultList" json:"lists,omitempty"`
}

// OrganisationList is the document wrapper for the full organisation
// register.
type OrganisationList struct {
	XMLName       struct{}       `exml:"OrganisationList" json:"-"`
	Organisations []Organisation `exml:"Organisation" json:"organisations"`
}

// EventList is the document wrapper for an event listing.
type EventList struct {
	XMLName struct{} `exml:"EventList" json:"-"`
	Events  []Event  `exml:"Event" json:"events"`
}

// PersonList is the document wrapper for an organisation's member listing.
type PersonList struct {
	XMLName struct{} `exml:"PersonList" json:"-"`
	Persons []Person `exml:"Person" json:"persons"`
}
