package scraper

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"eventor/internal/distance"
	"eventor/internal/logger"
)

const (
	UserAgent = "eventor-cli/1.0"
	Timeout   = 30 * time.Second
)

// Scraper fetches public result pages and extracts per-class course
// distances that the structured API does not expose.
type Scraper struct {
	client *http.Client
	url    string
}

// New creates a Scraper reading from the given results-page URL.
func New(resultsURL string) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url: resultsURL,
	}
}

// CourseDistances fetches the result page for one race and maps each class
// name to its course distance in meters. Extraction is best-effort and tied
// to the page's current markup: classes whose header block carries no
// recognizable distance are skipped, not treated as errors.
func (s *Scraper) CourseDistances(eventID, raceID int) (map[string]int, error) {
	req, err := http.NewRequest("GET", s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	q := req.URL.Query()
	q.Set("eventID", strconv.Itoa(eventID))
	q.Set("eventRaceId", strconv.Itoa(raceID))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching results page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return s.parseDistances(resp.Body)
}

// parseDistances extracts class name to distance pairs from result page HTML.
func (s *Scraper) parseDistances(r io.Reader) (map[string]int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	distances := make(map[string]int)

	doc.Find(".eventClassHeader").Each(func(i int, sel *goquery.Selection) {
		inner := sel.Find("div").First()
		heading := inner.Find("h3").First()
		name := strings.TrimSpace(heading.Text())
		if name == "" {
			return
		}

		// The heading text would otherwise pollute the distance text.
		heading.Remove()

		meters, err := distance.Parse(inner.Text())
		if err != nil {
			logger.Debug("class block without a parsable distance", logger.Fields{
				"class": name,
			})
			return
		}
		distances[name] = meters
	})

	logger.Debug("scraped class distances", logger.Fields{
		"classes": len(distances),
	})

	return distances, nil
}
