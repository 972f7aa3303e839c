package cli

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"eventor/internal/api"
	"eventor/internal/config"
	"eventor/internal/logger"
	"eventor/internal/schema"
	"eventor/internal/scraper"
	"eventor/internal/series"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

const dateLayout = "2006-01-02"

var (
	flagToken   string
	flagFormat  string
	flagVerbose bool

	flagEventID         int
	flagRaceID          int
	flagPersonID        int
	flagFrom            string
	flagTo              string
	flagTop             int
	flagSplits          bool
	flagEventIDs        []int
	flagOrganisationIDs []int
	flagClassifications []string
	flagClubs           []string
	flagSeriesName      string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eventor",
		Short: "Query the Eventor orienteering service",
		Long: `A CLI tool for the Eventor orienteering service.
Fetches events, result lists and organisation rosters over the XML API,
scrapes course distances from the public results pages and computes
standings for club competition series.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagVerbose {
				logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
			}
			format := OutputFormat(strings.ToLower(flagFormat))
			if format != FormatText && format != FormatJSON {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagToken, "token", "", "API token (default: EVENTOR_API_TOKEN environment variable)")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newEventCmd(),
		newEventsCmd(),
		newResultsCmd(),
		newOrganisationsCmd(),
		newPersonResultsCmd(),
		newOrganisationCmd(),
		newMembersCmd(),
		newDistancesCmd(),
		newSeriesCmd(),
	)

	return cmd
}

// newAPIClient builds a client from the --token flag or the environment.
func newAPIClient() (*api.Client, error) {
	cfg := config.Load()
	if flagToken != "" {
		cfg.APIToken = flagToken
	}
	token, err := cfg.RequireToken()
	if err != nil {
		return nil, err
	}
	return api.NewClientWithBaseURL(token, cfg.BaseURL), nil
}

func outputFormat() OutputFormat {
	return OutputFormat(strings.ToLower(flagFormat))
}

func parseRange() (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, flagFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q (want YYYY-MM-DD)", flagFrom)
	}
	to, err := time.Parse(dateLayout, flagTo)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q (want YYYY-MM-DD)", flagTo)
	}
	return from, to, nil
}

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Show a single event",
		RunE:  runEvent,
	}
	cmd.Flags().IntVar(&flagEventID, "id", 0, "Event id (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func runEvent(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	event, err := client.Event(flagEventID)
	if err != nil {
		return err
	}

	if outputFormat() == FormatJSON {
		return writeJSON(os.Stdout, event)
	}
	return writeEventText(os.Stdout, event)
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List events in a date range",
		RunE:  runEvents,
	}
	cmd.Flags().StringVar(&flagFrom, "from", "", "Start of the date range, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&flagTo, "to", "", "End of the date range, YYYY-MM-DD (required)")
	cmd.Flags().IntSliceVar(&flagEventIDs, "ids", nil, "Only these event ids")
	cmd.Flags().IntSliceVar(&flagOrganisationIDs, "organisations", nil, "Only events organised by these organisation ids")
	cmd.Flags().StringSliceVar(&flagClassifications, "classifications", nil, "Only these classifications (championship, national, state, local, club or 1-5)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func runEvents(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	from, to, err := parseRange()
	if err != nil {
		return err
	}

	filter := api.EventFilter{
		EventIDs:        flagEventIDs,
		OrganisationIDs: flagOrganisationIDs,
	}
	for _, raw := range flagClassifications {
		c, err := schema.ParseClassification(raw)
		if err != nil {
			return err
		}
		filter.Classifications = append(filter.Classifications, c)
	}

	seq, err := client.Events(from, to, filter)
	if err != nil {
		return err
	}
	events := slices.Collect(seq)
	slices.SortStableFunc(events, func(a, b schema.Event) int {
		return cmp.Compare(a.StartDate, b.StartDate)
	})

	if outputFormat() == FormatJSON {
		return writeJSON(os.Stdout, events)
	}
	return writeEventsText(os.Stdout, events)
}

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the result list for an event",
		RunE:  runResults,
	}
	cmd.Flags().IntVar(&flagEventID, "event", 0, "Event id (required)")
	cmd.Flags().BoolVar(&flagSplits, "splits", false, "Include split times")
	cmd.MarkFlagRequired("event")
	return cmd
}

func runResults(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	results, err := client.EventResults(flagEventID, flagSplits)
	if err != nil {
		return err
	}

	if outputFormat() == FormatJSON {
		return writeJSON(os.Stdout, results)
	}
	return writeResultsText(os.Stdout, results)
}

func newOrganisationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "organisations",
		Short: "List every registered organisation",
		RunE:  runOrganisations,
	}
}

func runOrganisations(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	seq, err := client.Organisations()
	if err != nil {
		return err
	}
	orgs := slices.Collect(seq)

	if outputFormat() == FormatJSON {
		return writeJSON(os.Stdout, orgs)
	}
	return writeOrganisationsText(os.Stdout, orgs)
}

func newPersonResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person-results",
		Short: "Show one person's results in a date range",
		RunE:  runPersonResults,
	}
	cmd.Flags().IntVar(&flagPersonID, "person", 0, "Person id (required)")
	cmd.Flags().StringVar(&flagFrom, "from", "", "Start of the date range, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&flagTo, "to", "", "End of the date range, YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&flagTop, "top", 0, "Only results within the top N of a class")
	cmd.MarkFlagRequired("person")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func runPersonResults(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	from, to, err := parseRange()
	if err != nil {
		return err
	}

	lists, err := client.PersonResults(flagPersonID, from, to, flagTop)
	if err != nil {
		return err
	}

	if outputFormat() == FormatJSON {
		return writeJSON(os.Stdout, lists)
	}
	return writeResultListsText(os.Stdout, lists)
}

func newOrganisationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "organisation",
		Short: "Show the organisation the API token belongs to",
		RunE:  runOrganisation,
	}
}

func runOrganisation(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	org, err := client.OwnOrganisation()
	if err != nil {
		return err
	}

	if outputFormat() == FormatJSON {
		return writeJSON(os.Stdout, org)
	}
	return writeOrganisationText(os.Stdout, org)
}

func newMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List the members of the token's organisation",
		RunE:  runMembers,
	}
}

func runMembers(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	seq, err := client.OwnOrganisationPersons()
	if err != nil {
		return err
	}
	persons := slices.Collect(seq)

	if outputFormat() == FormatJSON {
		return writeJSON(os.Stdout, persons)
	}
	return writePersonsText(os.Stdout, persons)
}

func newDistancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distances",
		Short: "Scrape course distances from the public results page",
		RunE:  runDistances,
	}
	cmd.Flags().IntVar(&flagEventID, "event", 0, "Event id (required)")
	cmd.Flags().IntVar(&flagRaceID, "race", 0, "Event race id (required)")
	cmd.MarkFlagRequired("event")
	cmd.MarkFlagRequired("race")
	return cmd
}

func runDistances(cmd *cobra.Command, args []string) error {
	// Scraping needs no token, only the public results page.
	cfg := config.Load()
	sc := scraper.New(cfg.ResultsURL)

	distances, err := sc.CourseDistances(flagEventID, flagRaceID)
	if err != nil {
		return err
	}

	if outputFormat() == FormatJSON {
		return writeJSON(os.Stdout, distances)
	}
	return writeDistancesText(os.Stdout, distances)
}

func newSeriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Compute standings for a club competition series",
		Long: `Computes standings for a competition series such as Vårcupen.
Events in the date range whose names match the series name are collected
in running order, every round but the last is scored, and each
competitor's gap to the leader becomes a chase-start delay for the
final round.`,
		RunE: runSeries,
	}
	cmd.Flags().StringVar(&flagFrom, "from", "", "Start of the date range, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&flagTo, "to", "", "End of the date range, YYYY-MM-DD (required)")
	cmd.Flags().StringSliceVar(&flagClubs, "clubs", nil, "Club name fragments whose events make up the series (required)")
	cmd.Flags().StringVar(&flagSeriesName, "name", "vårcup", "Substring that series event names must contain")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("clubs")
	return cmd
}

func runSeries(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	from, to, err := parseRange()
	if err != nil {
		return err
	}

	orgSeq, err := client.Organisations()
	if err != nil {
		return err
	}
	var orgIDs []int
	for org := range orgSeq {
		if lo.SomeBy(flagClubs, func(club string) bool { return strings.Contains(org.Name, club) }) {
			orgIDs = append(orgIDs, org.ID)
		}
	}
	logger.Debug("matched series organisations", logger.Fields{"count": len(orgIDs)})

	eventSeq, err := client.Events(from, to, api.EventFilter{OrganisationIDs: orgIDs})
	if err != nil {
		return err
	}
	name := strings.ToLower(flagSeriesName)
	var events []schema.Event
	for e := range eventSeq {
		if strings.Contains(strings.ToLower(e.Name), name) {
			events = append(events, e)
		}
	}
	slices.SortStableFunc(events, func(a, b schema.Event) int {
		return cmp.Compare(a.StartDate, b.StartDate)
	})

	// The last round is the chase start; its results never count, so they
	// are not fetched.
	rounds := make([]series.Round, 0, len(events))
	for i, e := range events {
		round := series.Round{Event: e}
		if i < len(events)-1 {
			results, err := client.EventResults(e.ID, false)
			if err != nil {
				return fmt.Errorf("fetching results for %q: %w", e.Name, err)
			}
			round.Classes = results.Classes
		}
		rounds = append(rounds, round)
	}

	table := series.Build(rounds)

	if outputFormat() == FormatJSON {
		return writeJSON(os.Stdout, table)
	}
	return writeSeriesText(os.Stdout, table)
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().Execute()
	if flagVerbose {
		fmt.Fprintln(os.Stderr, "Metrics:")
		writeJSON(os.Stderr, logger.GetMetricsSnapshot())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
