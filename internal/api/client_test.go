package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"eventor/internal/schema"
)

const eventDoc = `<?xml version="1.0" encoding="UTF-8"?>
<Event>
	<EventId>44693</EventId>
	<Name>Vårcuppen, deltävling 3</Name>
	<EventClassificationId>4</EventClassificationId>
	<EventStatusId>9</EventStatusId>
	<StartDate><Date>2024-04-18</Date></StartDate>
	<FinishDate><Date>2024-04-18</Date></FinishDate>
	<EventRace raceDistance="Day">
		<EventRaceId>45174</EventRaceId>
		<EventId>44693</EventId>
		<RaceDate><Date>2024-04-18</Date></RaceDate>
	</EventRace>
</Event>`

const eventListDoc = `<?xml version="1.0" encoding="UTF-8"?>
<EventList>
	<Event>
		<EventId>100</EventId>
		<Name>Deltävling 1</Name>
		<EventClassificationId>4</EventClassificationId>
		<EventStatusId>9</EventStatusId>
		<StartDate><Date>2024-04-04</Date></StartDate>
		<FinishDate><Date>2024-04-04</Date></FinishDate>
	</Event>
	<Event>
		<EventId>101</EventId>
		<Name>Deltävling 2</Name>
		<EventClassificationId>4</EventClassificationId>
		<EventStatusId>9</EventStatusId>
		<StartDate><Date>2024-04-11</Date></StartDate>
		<FinishDate><Date>2024-04-11</Date></FinishDate>
	</Event>
</EventList>`

const resultListDoc = `<?xml version="1.0" encoding="UTF-8"?>
<ResultList>
	<Event>
		<EventId>44693</EventId>
		<Name>Vårcuppen, deltävling 3</Name>
		<EventClassificationId>4</EventClassificationId>
		<EventStatusId>9</EventStatusId>
		<StartDate><Date>2024-04-18</Date></StartDate>
		<FinishDate><Date>2024-04-18</Date></FinishDate>
	</Event>
	<ClassResult numberOfEntries="1">
		<EventClass sex="B">
			<EventClassId>12345</EventClassId>
			<Name>Mellan, Orange</Name>
			<ClassShortName>Orange</ClassShortName>
			<ClassTypeId>17</ClassTypeId>
		</EventClass>
		<PersonResult>
			<Person>
				<PersonName>
					<Family>Svensson</Family>
					<Given>Erik</Given>
				</PersonName>
			</Person>
			<Result>
				<ResultId>9001</ResultId>
				<ResultPosition>1</ResultPosition>
				<CompetitorStatus value="OK"/>
			</Result>
		</PersonResult>
	</ClassResult>
</ResultList>`

const resultListListDoc = `<?xml version="1.0" encoding="UTF-8"?>
<ResultListList>
	<ResultList>
		<Event>
			<EventId>100</EventId>
			<Name>Deltävling 1</Name>
			<EventClassificationId>4</EventClassificationId>
			<EventStatusId>9</EventStatusId>
			<StartDate><Date>2024-04-04</Date></StartDate>
			<FinishDate><Date>2024-04-04</Date></FinishDate>
		</Event>
	</ResultList>
</ResultListList>`

const organisationDoc = `<?xml version="1.0" encoding="UTF-8"?>
<Organisation>
	<OrganisationId>321</OrganisationId>
	<Name>Skogsluffarnas OK</Name>
	<ShortName>Skogsluffarna</ShortName>
	<OrganisationTypeId>3</OrganisationTypeId>
</Organisation>`

const organisationListDoc = `<?xml version="1.0" encoding="UTF-8"?>
<OrganisationList>
	<Organisation>
		<OrganisationId>2</OrganisationId>
		<Name>Svenska Orienteringsförbundet</Name>
		<ShortName>SOFT</ShortName>
		<OrganisationTypeId>1</OrganisationTypeId>
	</Organisation>
	<Organisation>
		<OrganisationId>321</OrganisationId>
		<Name>Skogsluffarnas OK</Name>
		<ShortName>Skogsluffarna</ShortName>
		<OrganisationTypeId>3</OrganisationTypeId>
	</Organisation>
</OrganisationList>`

const personListDoc = `<?xml version="1.0" encoding="UTF-8"?>
<PersonList>
	<Person sex="F">
		<PersonName>
			<Family>Alexandersson</Family>
			<Given>Tove</Given>
		</PersonName>
		<PersonId>201</PersonId>
		<BirthDate><Date>1992-09-24</Date></BirthDate>
	</Person>
	<Person>
		<PersonName>
			<Family>Lundanes</Family>
			<Given>Olav</Given>
		</PersonName>
	</Person>
</PersonList>`

func TestEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/event/44693" {
			t.Errorf("path = %q, want /event/44693", r.URL.Path)
		}
		if got := r.Header.Get("ApiKey"); got != "secret" {
			t.Errorf("ApiKey header = %q, want %q", got, "secret")
		}
		w.Write([]byte(eventDoc))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	event, err := client.Event(44693)
	if err != nil {
		t.Fatalf("Event() failed: %v", err)
	}
	if event.ID != 44693 {
		t.Errorf("event id = %d, want 44693", event.ID)
	}
	if event.Name != "Vårcuppen, deltävling 3" {
		t.Errorf("unexpected event name %q", event.Name)
	}
	if len(event.Races) != 1 || event.Races[0].RaceID != 45174 {
		t.Errorf("unexpected races: %+v", event.Races)
	}
}

func TestEventsOmitsUnsetFilters(t *testing.T) {
	var query url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(eventListDoc))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	if _, err := client.Events(from, to, EventFilter{}); err != nil {
		t.Fatalf("Events() failed: %v", err)
	}

	if got := query.Get("fromDate"); got != "2024-04-01" {
		t.Errorf("fromDate = %q, want 2024-04-01", got)
	}
	if got := query.Get("toDate"); got != "2024-06-30" {
		t.Errorf("toDate = %q, want 2024-06-30", got)
	}
	for _, key := range []string{"eventIds", "organisationIds", "classificationIds"} {
		if _, present := query[key]; present {
			t.Errorf("expected %s to be omitted, got %q", key, query.Get(key))
		}
	}
	if len(query) != 2 {
		t.Errorf("expected exactly fromDate and toDate, got %v", query)
	}
}

func TestEventsFilterEncoding(t *testing.T) {
	var query url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(eventListDoc))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	filter := EventFilter{
		EventIDs:        []int{44693, 44694},
		OrganisationIDs: []int{321, 14},
		Classifications: []schema.Classification{
			schema.ClassificationNational,
			schema.ClassificationClub,
		},
	}
	events, err := client.Events(from, to, filter)
	if err != nil {
		t.Fatalf("Events() failed: %v", err)
	}

	// Event ids repeat the key; the other lists are comma-joined ordinals.
	if got := query["eventIds"]; len(got) != 2 || got[0] != "44693" || got[1] != "44694" {
		t.Errorf("eventIds = %v, want repeated keys [44693 44694]", got)
	}
	if got := query.Get("organisationIds"); got != "321,14" {
		t.Errorf("organisationIds = %q, want %q", got, "321,14")
	}
	if got := query.Get("classificationIds"); got != "2,5" {
		t.Errorf("classificationIds = %q, want %q", got, "2,5")
	}

	var ids []int
	for e := range events {
		ids = append(ids, e.ID)
	}
	if len(ids) != 2 || ids[0] != 100 || ids[1] != 101 {
		t.Errorf("decoded event ids = %v, want [100 101]", ids)
	}
}

func TestEventResultsSplitFlag(t *testing.T) {
	tests := []struct {
		name          string
		includeSplits bool
		expectParam   bool
	}{
		{"splits omitted by default", false, false},
		{"splits requested", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var query url.Values
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/results/event" {
					t.Errorf("path = %q, want /results/event", r.URL.Path)
				}
				query = r.URL.Query()
				w.Write([]byte(resultListDoc))
			}))
			defer server.Close()

			client := NewClientWithBaseURL("secret", server.URL)

			results, err := client.EventResults(44693, tt.includeSplits)
			if err != nil {
				t.Fatalf("EventResults() failed: %v", err)
			}

			if got := query.Get("eventId"); got != "44693" {
				t.Errorf("eventId = %q, want 44693", got)
			}
			_, present := query["includeSplitTimes"]
			if present != tt.expectParam {
				t.Errorf("includeSplitTimes present = %v, want %v", present, tt.expectParam)
			}
			if tt.expectParam && query.Get("includeSplitTimes") != "true" {
				t.Errorf("includeSplitTimes = %q, want true", query.Get("includeSplitTimes"))
			}

			if results.Event.ID != 44693 {
				t.Errorf("result list event id = %d, want 44693", results.Event.ID)
			}
			if len(results.Classes) != 1 {
				t.Fatalf("expected 1 class result, got %d", len(results.Classes))
			}
			if got := results.Classes[0].Results[0].Person.Name(); got != "Erik Svensson" {
				t.Errorf("unexpected person %q", got)
			}
		})
	}
}

func TestPersonResults(t *testing.T) {
	tests := []struct {
		name      string
		top       int
		expectTop string
	}{
		{"top omitted when zero", 0, ""},
		{"top sent when set", 3, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var query url.Values
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/results/person" {
					t.Errorf("path = %q, want /results/person", r.URL.Path)
				}
				query = r.URL.Query()
				w.Write([]byte(resultListListDoc))
			}))
			defer server.Close()

			client := NewClientWithBaseURL("secret", server.URL)

			from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
			lists, err := client.PersonResults(101, from, to, tt.top)
			if err != nil {
				t.Fatalf("PersonResults() failed: %v", err)
			}

			if got := query.Get("personId"); got != "101" {
				t.Errorf("personId = %q, want 101", got)
			}
			if got := query.Get("fromDate"); got != "2024-01-01" {
				t.Errorf("fromDate = %q, want 2024-01-01", got)
			}
			_, present := query["top"]
			if present != (tt.expectTop != "") {
				t.Errorf("top present = %v, want %v", present, tt.expectTop != "")
			}
			if tt.expectTop != "" && query.Get("top") != tt.expectTop {
				t.Errorf("top = %q, want %q", query.Get("top"), tt.expectTop)
			}

			if len(lists.Lists) != 1 || lists.Lists[0].Event.ID != 100 {
				t.Errorf("unexpected result lists: %+v", lists.Lists)
			}
		})
	}
}

func TestOrganisations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organisations" {
			t.Errorf("path = %q, want /organisations", r.URL.Path)
		}
		w.Write([]byte(organisationListDoc))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	orgs, err := client.Organisations()
	if err != nil {
		t.Fatalf("Organisations() failed: %v", err)
	}

	var names []string
	for org := range orgs {
		names = append(names, org.Name)
	}
	if len(names) != 2 || names[0] != "Svenska Orienteringsförbundet" || names[1] != "Skogsluffarnas OK" {
		t.Errorf("unexpected organisations %v", names)
	}

	// The sequence is single-pass: it stays drained.
	for org := range orgs {
		t.Errorf("drained sequence yielded %q", org.Name)
	}
}

func TestOwnOrganisation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organisation/apiKey" {
			t.Errorf("path = %q, want /organisation/apiKey", r.URL.Path)
		}
		if got := r.Header.Get("ApiKey"); got != "secret" {
			t.Errorf("ApiKey header = %q, want %q", got, "secret")
		}
		w.Write([]byte(organisationDoc))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	org, err := client.OwnOrganisation()
	if err != nil {
		t.Fatalf("OwnOrganisation() failed: %v", err)
	}
	if org.ID != 321 || org.Name != "Skogsluffarnas OK" {
		t.Errorf("unexpected organisation: %+v", org)
	}
}

func TestOwnOrganisationPersons(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/organisation/apiKey", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(organisationDoc))
	})
	mux.HandleFunc("/persons/organisations/321", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(personListDoc))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	persons, err := client.OwnOrganisationPersons()
	if err != nil {
		t.Fatalf("OwnOrganisationPersons() failed: %v", err)
	}

	var names []string
	for p := range persons {
		names = append(names, p.Name())
	}
	if len(names) != 2 || names[0] != "Tove Alexandersson" || names[1] != "Olav Lundanes" {
		t.Errorf("unexpected persons %v", names)
	}
}

func TestOwnOrganisationPersonsAbortsWhenResolutionFails(t *testing.T) {
	personCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/organisation/apiKey", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/persons/organisations/", func(w http.ResponseWriter, r *http.Request) {
		personCalls++
		w.Write([]byte(personListDoc))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	_, err := client.OwnOrganisationPersons()
	if err == nil {
		t.Fatal("expected OwnOrganisationPersons() to fail")
	}
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected a StatusError, got %T: %v", err, err)
	}
	if personCalls != 0 {
		t.Errorf("expected no member request after a failed resolution, got %d", personCalls)
	}
}

func TestStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	_, err := client.Event(99999)
	if err == nil {
		t.Fatal("expected Event() to fail")
	}
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected a StatusError, got %T: %v", err, err)
	}
	if serr.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", serr.Code)
	}
	if serr.Endpoint != "event/99999" {
		t.Errorf("endpoint = %q, want event/99999", serr.Endpoint)
	}
}

func TestDecodeErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<Error>database timeout</Error>`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	_, err := client.Event(44693)
	if err == nil {
		t.Fatal("expected Event() to fail")
	}
	var derr *schema.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected a DecodeError, got %T: %v", err, err)
	}
}

func TestTimingName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"events", "api.fetch.events"},
		{"event/44693", "api.fetch.event"},
		{"results/event", "api.fetch.results.event"},
		{"persons/organisations/321", "api.fetch.persons.organisations"},
		{"organisation/apiKey", "api.fetch.organisation.apiKey"},
	}

	for _, tt := range tests {
		if got := timingName(tt.path); got != tt.want {
			t.Errorf("timingName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClientWithBaseURL("secret", server.URL)

	_, err := client.Event(44693)
	if err == nil {
		t.Fatal("expected Event() to fail against a closed server")
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		t.Errorf("connection failures must not masquerade as status errors, got %v", serr)
	}
}
