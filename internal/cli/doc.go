// Package cli implements the command-line interface for eventor.
//
// The cli package provides the Cobra-based CLI with subcommands for fetching
// events, result lists and organisation rosters over the XML API, scraping
// course distances from the public results pages, and computing standings for
// club competition series. It coordinates the api, scraper, series and config
// packages and renders either human-readable text or JSON.
package cli
