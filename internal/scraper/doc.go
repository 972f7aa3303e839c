// Package scraper provides HTTP fetching and HTML parsing for public
// Eventor result pages.
//
// The scraper fetches the results page for one race and extracts course
// distances per class, a value the XML API does not expose. It is a
// layout-dependent fallback: it keys off the page's eventClassHeader blocks
// and is expected to break if that markup changes.
package scraper
