package api

import (
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/sling"
	"github.com/samber/lo"

	"eventor/internal/logger"
	"eventor/internal/schema"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://eventor.orientering.se/api"
	// UserAgent identifies this client to the service.
	UserAgent = "eventor-cli/1.0"

	dateLayout = "2006-01-02"
)

// StatusError reports a non-2xx response from the API. It is distinct from
// schema.DecodeError: the request never produced a decodable body.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("eventor: %s returned status %d", e.Endpoint, e.Code)
}

// Client is a client for the Eventor XML API. Every request carries the
// caller's token in an ApiKey header. The client performs no retries and no
// caching: one call is one (or, for OwnOrganisationPersons, two) round trips.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	base       *sling.Sling
}

// NewClient creates a client for the production API.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, DefaultBaseURL)
}

// NewClientWithBaseURL creates a client against a non-default API root,
// such as a test server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		base: sling.New().
			Client(httpClient).
			Base(baseURL + "/").
			Set("ApiKey", apiKey).
			Set("User-Agent", UserAgent),
	}
}

// get issues one authenticated GET against an endpoint path and returns the
// raw response body.
func (c *Client) get(path string, params interface{}) ([]byte, error) {
	start := time.Now()

	s := c.base.New().Get(path)
	if params != nil {
		s = s.QueryStruct(params)
	}
	req, err := s.Request()
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}

	logger.Debug("GET "+req.URL.String(), logger.Fields{
		"endpoint": path,
	})
	logger.IncrCounter("api.requests")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.IncrCounter("api.errors")
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.IncrCounter("api.errors")
		return nil, &StatusError{Endpoint: path, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", path, err)
	}

	logger.RecordTiming(timingName(path), time.Since(start))
	return body, nil
}

// timingName collapses id-bearing path segments so timings aggregate per
// endpoint rather than per entity.
func timingName(path string) string {
	segments := strings.Split(path, "/")
	kept := segments[:0]
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		kept = append(kept, segment)
	}
	return "api.fetch." + strings.Join(kept, ".")
}

// Event fetches all information about one event.
func (c *Client) Event(id int) (*schema.Event, error) {
	body, err := c.get(fmt.Sprintf("event/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var event schema.Event
	if err := schema.Decode(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// EventFilter narrows an event listing. Zero-valued filters are left out of
// the request entirely: the service treats an absent filter differently from
// an empty one.
type EventFilter struct {
	EventIDs        []int
	OrganisationIDs []int
	Classifications []schema.Classification
}

type eventsParams struct {
	FromDate          string `url:"fromDate"`
	ToDate            string `url:"toDate"`
	EventIDs          []int  `url:"eventIds,omitempty"`
	OrganisationIDs   []int  `url:"organisationIds,omitempty,comma"`
	ClassificationIDs []int  `url:"classificationIds,omitempty,comma"`
}

// Events lists the events inside a date range, optionally narrowed by
// filter. The returned sequence is single-pass over the one decoded listing.
func (c *Client) Events(from, to time.Time, filter EventFilter) (iter.Seq[schema.Event], error) {
	params := &eventsParams{
		FromDate:        from.Format(dateLayout),
		ToDate:          to.Format(dateLayout),
		EventIDs:        filter.EventIDs,
		OrganisationIDs: filter.OrganisationIDs,
		ClassificationIDs: lo.Map(filter.Classifications, func(cl schema.Classification, _ int) int {
			return int(cl)
		}),
	}

	body, err := c.get("events", params)
	if err != nil {
		return nil, err
	}
	var list schema.EventList
	if err := schema.Decode(body, &list); err != nil {
		return nil, err
	}
	return sequence(list.Events), nil
}

type eventResultsParams struct {
	EventID           int  `url:"eventId"`
	IncludeSplitTimes bool `url:"includeSplitTimes,omitempty"`
}

// EventResults fetches the complete results of one event, optionally with
// per-control split times.
func (c *Client) EventResults(eventID int, includeSplits bool) (*schema.ResultList, error) {
	params := &eventResultsParams{
		EventID:           eventID,
		IncludeSplitTimes: includeSplits,
	}

	body, err := c.get("results/event", params)
	if err != nil {
		return nil, err
	}
	var list schema.ResultList
	if err := schema.Decode(body, &list); err != nil {
		return nil, err
	}
	logger.SetGauge("api.result_classes", float64(len(list.Classes)))
	return &list, nil
}

// Organisations lists every organisation known to the service as a
// single-pass sequence.
func (c *Client) Organisations() (iter.Seq[schema.Organisation], error) {
	body, err := c.get("organisations", nil)
	if err != nil {
		return nil, err
	}
	var list schema.OrganisationList
	if err := schema.Decode(body, &list); err != nil {
		return nil, err
	}
	return sequence(list.Organisations), nil
}

type personResultsParams struct {
	FromDate string `url:"fromDate"`
	ToDate   string `url:"toDate"`
	PersonID int    `url:"personId"`
	Top      int    `url:"top,omitempty"`
}

// PersonResults fetches one person's results across every event in a date
// range. A non-zero top additionally includes the top-n finishers of each
// event in the response.
func (c *Client) PersonResults(personID int, from, to time.Time, top int) (*schema.ResultListList, error) {
	params := &personResultsParams{
		FromDate: from.Format(dateLayout),
		ToDate:   to.Format(dateLayout),
		PersonID: personID,
		Top:      top,
	}

	body, err := c.get("results/person", params)
	if err != nil {
		return nil, err
	}
	var lists schema.ResultListList
	if err := schema.Decode(body, &lists); err != nil {
		return nil, err
	}
	return &lists, nil
}

// OwnOrganisation resolves the organisation the client's token belongs to.
func (c *Client) OwnOrganisation() (*schema.Organisation, error) {
	body, err := c.get("organisation/apiKey", nil)
	if err != nil {
		return nil, err
	}
	var org schema.Organisation
	if err := schema.Decode(body, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// OrganisationPersons lists the members of one organisation as a single-pass
// sequence.
func (c *Client) OrganisationPersons(orgID int) (iter.Seq[schema.Person], error) {
	body, err := c.get(fmt.Sprintf("persons/organisations/%d", orgID), nil)
	if err != nil {
		return nil, err
	}
	var list schema.PersonList
	if err := schema.Decode(body, &list); err != nil {
		return nil, err
	}

	// Member listings normally carry ids and birth dates. Their absence
	// usually means the service changed its response shape.
	missing := lo.CountBy(list.Persons, func(p schema.Person) bool {
		return p.ID == nil || p.BirthDate == nil
	})
	if missing > 0 {
		logger.Warn("persons missing id or birth date", logger.Fields{
			"organisation_id": orgID,
			"count":           missing,
		})
	}

	return sequence(list.Persons), nil
}

// OwnOrganisationPersons lists the members of the token's own organisation.
// It resolves the organisation first and never issues the member request
// when that resolution fails.
func (c *Client) OwnOrganisationPersons() (iter.Seq[schema.Person], error) {
	org, err := c.OwnOrganisation()
	if err != nil {
		return nil, fmt.Errorf("resolving own organisation: %w", err)
	}
	return c.OrganisationPersons(org.ID)
}
