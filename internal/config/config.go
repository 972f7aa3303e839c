// Package config loads client settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://eventor.orientering.se/api"
	// DefaultResultsURL is the public results page consumed by the scraper.
	DefaultResultsURL = "https://eventor.orientering.se/Events/ResultList"
)

// Config carries the settings shared by every command.
type Config struct {
	APIToken   string
	BaseURL    string
	ResultsURL string
}

// Load reads configuration from the environment after merging in an optional
// .env file. A missing token is not an error at load time: commands that
// talk to the API check for it themselves, while scraping commands work
// without one.
func Load() Config {
	_ = godotenv.Load()

	c := Config{
		APIToken:   strings.TrimSpace(os.Getenv("EVENTOR_API_TOKEN")),
		BaseURL:    strings.TrimSpace(os.Getenv("EVENTOR_BASE_URL")),
		ResultsURL: strings.TrimSpace(os.Getenv("EVENTOR_RESULTS_URL")),
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ResultsURL == "" {
		c.ResultsURL = DefaultResultsURL
	}
	return c
}

// RequireToken returns the API token, or an error when none is configured.
func (c Config) RequireToken() (string, error) {
	if c.APIToken == "" {
		return "", errors.New("EVENTOR_API_TOKEN is empty")
	}
	return c.APIToken, nil
}
